package filemeta

import (
	"mime"
	"path/filepath"
	"strings"
)

// Meta is the normalized shape a file field's value takes in stored
// submission data. Submitters may send a bare file name or a metadata
// object; either way the stored value is one of these.
type Meta struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Size int64  `json:"size,omitempty"`
	MIME string `json:"mime,omitempty"`
}

// Normalize coerces a raw payload value into file metadata. A bare string is
// taken as the file name; a map is read key by key, tolerating the client's
// number types. Normalizing an already normalized value is a no-op.
func Normalize(value interface{}) (Meta, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return Meta{}, false
		}
		return Meta{Name: v}, true
	case map[string]interface{}:
		meta := Meta{}
		if name, ok := v["name"].(string); ok {
			meta.Name = name
		}
		if url, ok := v["url"].(string); ok {
			meta.URL = url
		}
		switch size := v["size"].(type) {
		case float64:
			meta.Size = int64(size)
		case int64:
			meta.Size = size
		case int:
			meta.Size = int64(size)
		}
		if m, ok := v["mime"].(string); ok {
			meta.MIME = m
		} else if ct, ok := v["contentType"].(string); ok {
			meta.MIME = ct
		}
		if meta.Name == "" {
			return Meta{}, false
		}
		return meta, true
	}
	return Meta{}, false
}

// ToMap converts metadata back to the map shape stored in submission data.
// Zero-valued optional parts are omitted.
func (m Meta) ToMap() map[string]interface{} {
	result := map[string]interface{}{"name": m.Name}
	if m.URL != "" {
		result["url"] = m.URL
	}
	if m.Size > 0 {
		result["size"] = m.Size
	}
	if m.MIME != "" {
		result["mime"] = m.MIME
	}
	return result
}

// Allowed checks the file against a comma-separated accept list such as
// ".pdf,.docx,image/*". Entries starting with a dot match the file name's
// extension; entries containing a slash match the MIME type, with "image/*"
// style wildcards. An empty accept list allows everything.
func (m Meta) Allowed(accept string) bool {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return true
	}

	for _, entry := range strings.Split(accept, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			if matchesMIME(m.contentType(), entry) {
				return true
			}
			continue
		}
		if matchesExtension(m.Name, entry) {
			return true
		}
	}
	return false
}

// contentType resolves the effective MIME type, falling back to the name's
// extension when the submitter did not send one.
func (m Meta) contentType() string {
	if m.MIME != "" {
		return m.MIME
	}
	return mime.TypeByExtension(filepath.Ext(m.Name))
}

func matchesMIME(contentType, allowed string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasSuffix(allowed, "/*") {
		return strings.HasPrefix(mediaType, strings.TrimSuffix(allowed, "*"))
	}
	return mediaType == allowed
}

func matchesExtension(name, allowed string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	return ext == strings.TrimPrefix(allowed, ".")
}
