package submission

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"formcraft/internal/errs"
	"formcraft/internal/filemeta"
	"formcraft/internal/model"
	"formcraft/internal/registry"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{6,20}$`)
)

// Validator checks raw submission payloads against a form definition. It is
// pure with respect to the form: it never persists, it only hands the
// normalized record back to the caller.
type Validator struct {
	reg *registry.Registry
}

func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{reg: reg}
}

// Validate walks the form's fields in order and checks the payload value for
// each. Failures are collected across all fields, never fail-fast, so the
// submitter sees the complete list. On success the returned map holds the
// normalized data (field id -> coerced value); optional empty fields are
// omitted.
func (v *Validator) Validate(f *model.Form, payload map[string]interface{}) (map[string]interface{}, []errs.FieldError) {
	normalized := make(map[string]interface{}, len(f.Fields))
	var fieldErrs []errs.FieldError

	fail := func(id, msg string) {
		fieldErrs = append(fieldErrs, errs.FieldError{FieldID: id, Message: msg})
	}

	for _, fd := range f.Fields {
		value, present := payload[fd.ID]
		empty := !present || isEmpty(value)

		// Optional and empty: always valid, nothing to record.
		if empty && !fd.Required {
			continue
		}
		if empty {
			fail(fd.ID, "This field is required")
			continue
		}

		if _, err := v.reg.Describe(fd.Kind); err != nil {
			// A field whose kind no longer resolves rejects, never guesses.
			fail(fd.ID, fmt.Sprintf("Unknown field type %q", fd.Kind))
			continue
		}

		switch fd.Kind {
		case model.KindEmail:
			s, ok := value.(string)
			if !ok || !emailPattern.MatchString(s) {
				fail(fd.ID, "Please enter a valid email address")
				continue
			}
			normalized[fd.ID] = s

		case model.KindNumber:
			n, ok := numericValue(value)
			if !ok {
				fail(fd.ID, "Please enter a valid number")
				continue
			}
			if fd.Min != nil && n < *fd.Min {
				fail(fd.ID, "Value must be at least "+formatBound(*fd.Min))
				continue
			}
			if fd.Max != nil && n > *fd.Max {
				fail(fd.ID, "Value must be at most "+formatBound(*fd.Max))
				continue
			}
			normalized[fd.ID] = n

		case model.KindTel:
			s, ok := value.(string)
			if !ok || !phonePattern.MatchString(s) {
				fail(fd.ID, "Please enter a valid phone number")
				continue
			}
			normalized[fd.ID] = s

		case model.KindCheckbox:
			checked := isTrue(value)
			if fd.Required && !checked {
				fail(fd.ID, "This field is required")
				continue
			}
			normalized[fd.ID] = checked

		case model.KindFile:
			meta, ok := filemeta.Normalize(value)
			if !ok {
				fail(fd.ID, "Please attach a file")
				continue
			}
			if !meta.Allowed(fd.Accept) {
				fail(fd.ID, "File type is not allowed. Allowed: "+fd.Accept)
				continue
			}
			normalized[fd.ID] = meta.ToMap()

		default:
			// text, textarea, select, radio, date, password: required-and-empty
			// is the only rejection.
			normalized[fd.ID] = value
		}
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}
	return normalized, nil
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

func isTrue(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		// HTML form posts send the checked state as a string.
		return v == "true"
	default:
		return false
	}
}

// numericValue coerces a payload value to a finite number.
func numericValue(value interface{}) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func formatBound(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

