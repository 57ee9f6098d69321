package service

import (
	"context"
	"fmt"
	"time"

	"formcraft/internal/analytics"
	"formcraft/internal/errs"
	"formcraft/internal/form"
	"formcraft/internal/model"
	"formcraft/internal/plan"
	"formcraft/internal/registry"

	"github.com/oklog/ulid/v2"
)

// FormStore is the persistence surface the form service needs.
type FormStore interface {
	CreateForm(ctx context.Context, f *model.Form) (*model.Form, error)
	GetForm(ctx context.Context, id, ownerID string) (*model.Form, error)
	ListForms(ctx context.Context, ownerID string) ([]model.Form, error)
	CountForms(ctx context.Context, ownerID string) (int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateForm(ctx context.Context, f *model.Form) (*model.Form, error)
	DeleteForm(ctx context.Context, id, ownerID string) error
	ListSubmissions(ctx context.Context, formID string, limit int) ([]model.Submission, error)
}

// FormService owns the form lifecycle: create with quota and slug assignment,
// full-document replace on save, delete with cascade, and the owner's
// analytics view.
type FormService struct {
	store FormStore
	reg   *registry.Registry
	agg   *analytics.Aggregator
}

func NewFormService(store FormStore, reg *registry.Registry, agg *analytics.Aggregator) *FormService {
	return &FormService{store: store, reg: reg, agg: agg}
}

type CreateFormInput struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Fields      []model.FieldDefinition `json:"fields"`
	Settings    *model.FormSettings     `json:"settings,omitempty"`
}

// CreateForm builds a new unpublished form for the owner. The free-plan form
// quota is checked first, before slug assignment or any persistence attempt.
func (s *FormService) CreateForm(ctx context.Context, owner model.User, input CreateFormInput) (*model.Form, error) {
	caps := plan.For(owner.Plan)
	if caps.MaxForms > 0 {
		owned, err := s.store.CountForms(ctx, owner.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count forms: %w", err)
		}
		if caps.FormLimitReached(owned) {
			return nil, fmt.Errorf("%w: free plan is limited to %d forms", errs.ErrQuotaExceeded, caps.MaxForms)
		}
	}

	slug, err := form.AssignSlug(ctx, s.store, input.Title)
	if err != nil {
		return nil, err
	}

	settings := model.DefaultSettings()
	if input.Settings != nil {
		settings = *input.Settings
	}
	fields := input.Fields
	if fields == nil {
		fields = []model.FieldDefinition{}
	}

	f := &model.Form{
		ID:          ulid.Make().String(),
		OwnerID:     owner.ID,
		Title:       input.Title,
		Description: input.Description,
		Slug:        slug,
		IsPublished: false,
		Fields:      fields,
		Settings:    settings,
	}

	if err := form.Validate(s.reg, f); err != nil {
		return nil, err
	}

	created, err := s.store.CreateForm(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	return created, nil
}

func (s *FormService) GetForm(ctx context.Context, ownerID, id string) (*model.Form, error) {
	return s.store.GetForm(ctx, id, ownerID)
}

func (s *FormService) ListForms(ctx context.Context, ownerID string) ([]model.Form, error) {
	return s.store.ListForms(ctx, ownerID)
}

type UpdateFormInput struct {
	Title       *string                  `json:"title,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Fields      *[]model.FieldDefinition `json:"fields,omitempty"`
	Settings    *model.FormSettings      `json:"settings,omitempty"`
	IsPublished *bool                    `json:"isPublished,omitempty"`
	ExpiresAt   *time.Time               `json:"expiresAt,omitempty"`
}

// UpdateForm replaces the stored document. Absent input parts keep their
// stored value; fields and settings may change at any time, even after
// publication. Settings the owner's plan does not allow are still stored:
// gating happens at the point of use, so a downgrade loses nothing.
func (s *FormService) UpdateForm(ctx context.Context, owner model.User, id string, input UpdateFormInput) (*model.Form, error) {
	f, err := s.store.GetForm(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		f.Title = *input.Title
	}
	if input.Description != nil {
		f.Description = *input.Description
	}
	if input.Fields != nil {
		f.Fields = *input.Fields
	}
	if input.Settings != nil {
		f.Settings = *input.Settings
	}
	if input.IsPublished != nil {
		f.IsPublished = *input.IsPublished
	}
	if input.ExpiresAt != nil {
		f.ExpiresAt = input.ExpiresAt
	}

	if err := form.Validate(s.reg, f); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateForm(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}
	return updated, nil
}

// DeleteForm removes the form and, through the storage layer, all its
// submissions and its analytics row. Irreversible.
func (s *FormService) DeleteForm(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteForm(ctx, id, ownerID)
}

// AnalyticsView is what the owner's dashboard renders for one form.
type AnalyticsView struct {
	Analytics       model.Analytics    `json:"analytics"`
	Submissions     []model.Submission `json:"submissions"`
	FieldCompletion map[string]float64 `json:"fieldCompletion"`
}

// Analytics returns the counters, recent submissions and derived field
// completion rates. Completion is recomputed on every call from a bounded
// sample of the newest submissions.
func (s *FormService) Analytics(ctx context.Context, ownerID, id string, sampleSize int) (*AnalyticsView, error) {
	f, err := s.store.GetForm(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	counters, err := s.agg.Counters(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	sample, err := s.store.ListSubmissions(ctx, f.ID, analytics.SampleLimit(sampleSize))
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	return &AnalyticsView{
		Analytics:       counters,
		Submissions:     sample,
		FieldCompletion: analytics.FieldCompletion(sample),
	}, nil
}
