package registry

import (
	"fmt"

	"formcraft/internal/errs"
	"formcraft/internal/model"
)

// Descriptor declares the structural features of one field kind: which
// attributes the editor must supply and which validation applies.
type Descriptor struct {
	Kind             model.FieldKind `json:"kind"`
	HasPlaceholder   bool            `json:"hasPlaceholder"`
	HasOptions       bool            `json:"hasOptions"`
	HasNumericBounds bool            `json:"hasNumericBounds"`
	HasFileAccept    bool            `json:"hasFileAccept"`
	DefaultLabel     string          `json:"defaultLabel"`
}

// Registry is the static catalog of supported field kinds. Read-only after
// construction.
type Registry struct {
	kinds map[model.FieldKind]Descriptor
}

// New builds the catalog. The enumeration below is the registry's entire
// content; anything else is an unknown kind.
func New() *Registry {
	descriptors := []Descriptor{
		{Kind: model.KindText, HasPlaceholder: true, DefaultLabel: "Text Field"},
		{Kind: model.KindEmail, HasPlaceholder: true, DefaultLabel: "Email"},
		{Kind: model.KindPassword, HasPlaceholder: true, DefaultLabel: "Password"},
		{Kind: model.KindNumber, HasPlaceholder: true, HasNumericBounds: true, DefaultLabel: "Number"},
		{Kind: model.KindTel, HasPlaceholder: true, DefaultLabel: "Phone Number"},
		{Kind: model.KindTextarea, HasPlaceholder: true, DefaultLabel: "Text Area"},
		{Kind: model.KindCheckbox, DefaultLabel: "Checkbox"},
		{Kind: model.KindRadio, HasOptions: true, DefaultLabel: "Radio Button Group"},
		{Kind: model.KindSelect, HasPlaceholder: true, HasOptions: true, DefaultLabel: "Dropdown"},
		{Kind: model.KindDate, DefaultLabel: "Date"},
		{Kind: model.KindFile, HasFileAccept: true, DefaultLabel: "File Upload"},
	}

	kinds := make(map[model.FieldKind]Descriptor, len(descriptors))
	for _, d := range descriptors {
		kinds[d.Kind] = d
	}
	return &Registry{kinds: kinds}
}

// Describe looks up the descriptor for kind. An unknown kind is an error,
// never a silent default: callers must reject the whole field.
func (r *Registry) Describe(kind model.FieldKind) (Descriptor, error) {
	d, ok := r.kinds[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", errs.ErrUnknownKind, kind)
	}
	return d, nil
}

// Kinds returns every registered descriptor, for the editor's palette.
func (r *Registry) Kinds() []Descriptor {
	out := make([]Descriptor, 0, len(r.kinds))
	for _, d := range r.kinds {
		out = append(out, d)
	}
	return out
}
