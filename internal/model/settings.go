package model

import (
	"encoding/json"
	"fmt"
)

// FormSettings holds form-level presentation and behavior settings. Like
// FieldDefinition, unknown keys survive a round trip through Extra.
type FormSettings struct {
	Theme                    string
	SubmitButtonText         string
	SuccessMessage           string
	RequireEmail             bool
	EnableCaptcha            bool
	EnableRedirect           bool
	RedirectURL              string
	EnableEmailNotifications bool
	NotificationEmail        string
	Extra                    map[string]json.RawMessage
}

// DefaultSettings returns the settings a newly created form starts with.
func DefaultSettings() FormSettings {
	return FormSettings{
		Theme:            "light",
		SubmitButtonText: "Submit",
		SuccessMessage:   "Form submitted successfully!",
	}
}

func (s *FormSettings) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if s.Theme, err = popString(raw, "theme"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.SubmitButtonText, err = popString(raw, "submitButtonText"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.SuccessMessage, err = popString(raw, "successMessage"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.RequireEmail, err = popBool(raw, "requireEmail"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.EnableCaptcha, err = popBool(raw, "enableCaptcha"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.EnableRedirect, err = popBool(raw, "enableRedirect"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.RedirectURL, err = popString(raw, "redirectUrl"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.EnableEmailNotifications, err = popBool(raw, "enableEmailNotifications"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.NotificationEmail, err = popString(raw, "notificationEmail"); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

func (s FormSettings) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Extra)+9)
	for k, v := range s.Extra {
		out[k] = v
	}

	out["theme"] = s.Theme
	out["submitButtonText"] = s.SubmitButtonText
	out["successMessage"] = s.SuccessMessage
	if s.RequireEmail {
		out["requireEmail"] = true
	}
	if s.EnableCaptcha {
		out["enableCaptcha"] = true
	}
	if s.EnableRedirect {
		out["enableRedirect"] = true
	}
	if s.RedirectURL != "" {
		out["redirectUrl"] = s.RedirectURL
	}
	if s.EnableEmailNotifications {
		out["enableEmailNotifications"] = true
	}
	if s.NotificationEmail != "" {
		out["notificationEmail"] = s.NotificationEmail
	}
	return json.Marshal(out)
}
