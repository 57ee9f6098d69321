package filemeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBareString(t *testing.T) {
	meta, ok := Normalize("resume.pdf")
	require.True(t, ok)
	assert.Equal(t, Meta{Name: "resume.pdf"}, meta)
}

func TestNormalizeMetadataObject(t *testing.T) {
	meta, ok := Normalize(map[string]interface{}{
		"name": "photo.png",
		"url":  "https://cdn.example.com/photo.png",
		"size": float64(2048),
		"mime": "image/png",
	})
	require.True(t, ok)
	assert.Equal(t, "photo.png", meta.Name)
	assert.Equal(t, int64(2048), meta.Size)
	assert.Equal(t, "image/png", meta.MIME)
}

func TestNormalizeContentTypeFallbackKey(t *testing.T) {
	meta, ok := Normalize(map[string]interface{}{
		"name":        "doc.pdf",
		"contentType": "application/pdf",
	})
	require.True(t, ok)
	assert.Equal(t, "application/pdf", meta.MIME)
}

func TestNormalizeRejectsNameless(t *testing.T) {
	_, ok := Normalize(map[string]interface{}{"size": float64(10)})
	assert.False(t, ok)

	_, ok = Normalize("")
	assert.False(t, ok)

	_, ok = Normalize(42)
	assert.False(t, ok)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	meta, ok := Normalize("cv.docx")
	require.True(t, ok)

	again, ok := Normalize(meta.ToMap())
	require.True(t, ok)
	assert.Equal(t, meta, again)
}

func TestAllowedByExtension(t *testing.T) {
	meta := Meta{Name: "Resume.PDF"}
	assert.True(t, meta.Allowed(".pdf,.docx"))
	assert.True(t, meta.Allowed("pdf"))
	assert.False(t, meta.Allowed(".png,.jpg"))
}

func TestAllowedByMIME(t *testing.T) {
	meta := Meta{Name: "photo.png", MIME: "image/png"}
	assert.True(t, meta.Allowed("image/png"))
	assert.True(t, meta.Allowed("image/*"))
	assert.False(t, meta.Allowed("video/*"))
}

func TestAllowedMIMEFallsBackToExtension(t *testing.T) {
	meta := Meta{Name: "photo.png"}
	assert.True(t, meta.Allowed("image/*"))
}

func TestAllowedEmptyAcceptAllowsEverything(t *testing.T) {
	meta := Meta{Name: "anything.xyz"}
	assert.True(t, meta.Allowed(""))
	assert.True(t, meta.Allowed("   "))
}

func TestAllowedNoExtension(t *testing.T) {
	meta := Meta{Name: "README"}
	assert.False(t, meta.Allowed(".pdf"))
}
