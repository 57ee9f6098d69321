package form

import (
	"fmt"
	"regexp"

	"formcraft/internal/errs"
	"formcraft/internal/model"
	"formcraft/internal/registry"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Validate checks a candidate form definition against structural invariants
// before it is persisted. Every failure is collected so the editor can show
// the complete list.
func Validate(reg *registry.Registry, f *model.Form) error {
	var fieldErrs []errs.FieldError

	if f.Title == "" {
		fieldErrs = append(fieldErrs, errs.FieldError{Message: "Title is required"})
	}
	if f.Slug == "" {
		fieldErrs = append(fieldErrs, errs.FieldError{Message: "Slug is required"})
	} else if !slugPattern.MatchString(f.Slug) {
		fieldErrs = append(fieldErrs, errs.FieldError{
			Message: "Slug may only contain lowercase letters, digits and hyphens",
		})
	}

	seen := make(map[string]bool, len(f.Fields))
	for _, fd := range f.Fields {
		if fd.ID == "" {
			fieldErrs = append(fieldErrs, errs.FieldError{Message: "Field id is required"})
			continue
		}
		if seen[fd.ID] {
			fieldErrs = append(fieldErrs, errs.FieldError{
				FieldID: fd.ID,
				Message: "Duplicate field id",
			})
			continue
		}
		seen[fd.ID] = true

		desc, err := reg.Describe(fd.Kind)
		if err != nil {
			fieldErrs = append(fieldErrs, errs.FieldError{
				FieldID: fd.ID,
				Message: fmt.Sprintf("Unknown field type %q", fd.Kind),
			})
			continue
		}

		fieldErrs = append(fieldErrs, validateField(desc, fd)...)
	}

	if len(fieldErrs) > 0 {
		return &errs.ValidationError{Errors: fieldErrs}
	}
	return nil
}

func validateField(desc registry.Descriptor, fd model.FieldDefinition) []errs.FieldError {
	var out []errs.FieldError

	if desc.HasOptions {
		if len(fd.Options) == 0 {
			out = append(out, errs.FieldError{
				FieldID: fd.ID,
				Message: fmt.Sprintf("%s fields need at least one option", fd.Kind),
			})
		}
		values := make(map[string]bool, len(fd.Options))
		for _, opt := range fd.Options {
			if values[opt.Value] {
				out = append(out, errs.FieldError{
					FieldID: fd.ID,
					Message: fmt.Sprintf("Duplicate option value %q", opt.Value),
				})
			}
			values[opt.Value] = true
		}
	} else if len(fd.Options) > 0 {
		out = append(out, errs.FieldError{
			FieldID: fd.ID,
			Message: fmt.Sprintf("%s fields do not take options", fd.Kind),
		})
	}

	// Bounds only mean anything on number fields.
	if desc.HasNumericBounds {
		if fd.Min != nil && fd.Max != nil && *fd.Min > *fd.Max {
			out = append(out, errs.FieldError{
				FieldID: fd.ID,
				Message: "Minimum must not exceed maximum",
			})
		}
	} else if fd.Min != nil || fd.Max != nil {
		out = append(out, errs.FieldError{
			FieldID: fd.ID,
			Message: fmt.Sprintf("%s fields do not take numeric bounds", fd.Kind),
		})
	}

	return out
}
