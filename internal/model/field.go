package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Option is one selectable choice of a radio or select field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts both the object form {"label":...,"value":...} and the
// bare string shorthand older editor payloads use.
func (o *Option) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Label, o.Value = s, s
		return nil
	}
	type option Option
	var v option
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Option(v)
	return nil
}

// FieldDefinition is one typed field of a form. The wire shape is open: keys
// this version does not understand are kept in Extra and re-serialized
// unchanged, so editor extensions survive a round trip through the server.
type FieldDefinition struct {
	ID          string
	Kind        FieldKind
	Label       string
	Placeholder string
	Required    bool
	Options     []Option
	HelpText    string
	Min         *float64
	Max         *float64
	Rows        *int
	Accept      string
	Extra       map[string]json.RawMessage
}

func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if f.ID, err = popString(raw, "id"); err != nil {
		return err
	}
	var kind string
	if kind, err = popString(raw, "type"); err != nil {
		return err
	}
	f.Kind = FieldKind(kind)
	if f.Label, err = popString(raw, "label"); err != nil {
		return err
	}
	if f.Placeholder, err = popString(raw, "placeholder"); err != nil {
		return err
	}
	if f.Required, err = popBool(raw, "required"); err != nil {
		return err
	}
	if f.HelpText, err = popString(raw, "helpText"); err != nil {
		return err
	}
	if f.Accept, err = popString(raw, "accept"); err != nil {
		return err
	}
	if f.Min, err = popNumber(raw, "min"); err != nil {
		return err
	}
	if f.Max, err = popNumber(raw, "max"); err != nil {
		return err
	}

	if rowsRaw, ok := raw["rows"]; ok {
		delete(raw, "rows")
		n, err := numberValue(rowsRaw)
		if err != nil {
			return fmt.Errorf("field %q: rows: %w", f.ID, err)
		}
		if n != nil {
			rows := int(*n)
			f.Rows = &rows
		}
	}

	if optsRaw, ok := raw["options"]; ok {
		delete(raw, "options")
		if string(optsRaw) != "null" {
			if err := json.Unmarshal(optsRaw, &f.Options); err != nil {
				return fmt.Errorf("field %q: options: %w", f.ID, err)
			}
		}
	}

	if len(raw) > 0 {
		f.Extra = raw
	}
	return nil
}

func (f FieldDefinition) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(f.Extra)+8)
	for k, v := range f.Extra {
		out[k] = v
	}

	out["id"] = f.ID
	out["type"] = f.Kind
	out["label"] = f.Label
	out["required"] = f.Required
	if f.Placeholder != "" {
		out["placeholder"] = f.Placeholder
	}
	if f.Options != nil {
		out["options"] = f.Options
	}
	if f.HelpText != "" {
		out["helpText"] = f.HelpText
	}
	if f.Min != nil {
		out["min"] = *f.Min
	}
	if f.Max != nil {
		out["max"] = *f.Max
	}
	if f.Rows != nil {
		out["rows"] = *f.Rows
	}
	if f.Accept != "" {
		out["accept"] = f.Accept
	}
	return json.Marshal(out)
}

func popString(raw map[string]json.RawMessage, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", nil
	}
	delete(raw, key)
	if string(v) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

func popBool(raw map[string]json.RawMessage, key string) (bool, error) {
	v, ok := raw[key]
	if !ok {
		return false, nil
	}
	delete(raw, key)
	if string(v) == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func popNumber(raw map[string]json.RawMessage, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	delete(raw, key)
	n, err := numberValue(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// numberValue coerces a JSON number or a numeric string. The form editor sends
// numeric bounds as either, depending on the input widget.
func numberValue(raw json.RawMessage) (*float64, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("expected number or numeric string, got %s", raw)
	}
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &f, nil
}
