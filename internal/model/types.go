package model

import "time"

// PlanType represents a user's subscription tier
type PlanType string

const (
	PlanFree PlanType = "free"
	PlanPro  PlanType = "pro"
)

// FieldKind represents the type tag of a form field
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindPassword FieldKind = "password"
	KindNumber   FieldKind = "number"
	KindTel      FieldKind = "tel"
	KindTextarea FieldKind = "textarea"
	KindCheckbox FieldKind = "checkbox"
	KindRadio    FieldKind = "radio"
	KindSelect   FieldKind = "select"
	KindDate     FieldKind = "date"
	KindFile     FieldKind = "file"
)

// User represents a form owner
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FirstName  string    `json:"firstName,omitempty"`
	LastName   string    `json:"lastName,omitempty"`
	IsVerified bool      `json:"isVerified"`
	Plan       PlanType  `json:"planType"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Account couples a user with its stored credential hash. Only the login
// path sees it.
type Account struct {
	User
	PasswordHash string
}

// Form represents a user-defined form document
type Form struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Slug        string            `json:"slug"`
	IsPublished bool              `json:"isPublished"`
	ExpiresAt   *time.Time        `json:"expiresAt,omitempty"`
	Fields      []FieldDefinition `json:"fields"`
	Settings    FormSettings      `json:"settings"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Expired reports whether the form's expiration has passed at the given time.
func (f *Form) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && f.ExpiresAt.Before(now)
}

// Submission represents an accepted, normalized submission. Immutable once
// created; only the submission validator's accept path produces one.
type Submission struct {
	ID          string                 `json:"id"`
	FormID      string                 `json:"formId"`
	Data        map[string]interface{} `json:"data"`
	IPAddress   string                 `json:"ipAddress,omitempty"`
	UserAgent   string                 `json:"userAgent,omitempty"`
	SubmittedAt time.Time              `json:"submittedAt"`
}

// Analytics holds per-form running counters. One row per form, created lazily
// on first view or submission.
type Analytics struct {
	FormID                string    `json:"formId"`
	Views                 int64     `json:"views"`
	Submissions           int64     `json:"submissions"`
	ConversionRate        float64   `json:"conversionRate"`
	AverageCompletionTime *int64    `json:"averageCompletionTime,omitempty"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
