package service

import (
	"context"
	"fmt"
	"time"

	"formcraft/internal/analytics"
	"formcraft/internal/errs"
	"formcraft/internal/model"
	"formcraft/internal/plan"
	"formcraft/internal/submission"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	slugCacheSize = 1024
	slugCacheTTL  = 30 * time.Second
)

// PublicStore is the persistence surface for the unauthenticated renderer and
// submit endpoint.
type PublicStore interface {
	GetFormBySlug(ctx context.Context, slug string) (*model.Form, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error)
}

// Mailer is the slice of the mail sender the public surface uses.
type Mailer interface {
	SendSubmissionNotification(to, formTitle string) error
}

// EventBus fans form events out to dashboard subscribers.
type EventBus interface {
	PublishForm(formID string, event map[string]interface{}) error
}

// PublicService serves the published side of a form: fetch for rendering and
// accept submissions. Lookups by slug go through a short-TTL cache so a form
// being hammered by traffic does not hit the database on every view.
type PublicService struct {
	store     PublicStore
	agg       *analytics.Aggregator
	validator *submission.Validator
	bus       EventBus
	mailer    Mailer
	cache     *expirable.LRU[string, *model.Form]
	log       *zap.Logger
}

func NewPublicService(store PublicStore, agg *analytics.Aggregator, validator *submission.Validator, bus EventBus, mailer Mailer, log *zap.Logger) *PublicService {
	return &PublicService{
		store:     store,
		agg:       agg,
		validator: validator,
		bus:       bus,
		mailer:    mailer,
		cache:     expirable.NewLRU[string, *model.Form](slugCacheSize, nil, slugCacheTTL),
		log:       log,
	}
}

// PublicForm is a form as the renderer sees it: the owner's plan gating is
// already applied to the settings.
type PublicForm struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Slug        string                  `json:"slug"`
	Fields      []model.FieldDefinition `json:"fields"`
	Settings    model.FormSettings      `json:"settings"`
}

// FetchForm resolves a published form for rendering. An unpublished or unknown
// slug is not found; a published form past its expiry is expired. Every
// successful fetch counts as a view.
func (s *PublicService) FetchForm(ctx context.Context, slug string) (*PublicForm, error) {
	f, caps, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	if _, err := s.agg.RecordView(ctx, f.ID); err != nil {
		// A lost view never blocks rendering.
		s.log.Warn("failed to record view", zap.String("form_id", f.ID), zap.Error(err))
	}
	s.publish(f.ID, "form.viewed", nil)

	return &PublicForm{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Slug:        f.Slug,
		Fields:      f.Fields,
		Settings:    plan.EffectiveSettings(f.Settings, caps),
	}, nil
}

// SubmitResult carries the outcome of a submission attempt. Exactly one of
// Submission and FieldErrors is set.
type SubmitResult struct {
	Submission  *model.Submission
	FieldErrors []errs.FieldError
	Settings    model.FormSettings
}

// Submit validates and persists one submission. Gates run in order: the form
// must exist and be published, not be expired, and be under the owner's
// submission quota, all before any field validation happens.
func (s *PublicService) Submit(ctx context.Context, slug string, payload map[string]interface{}, ip, userAgent string) (*SubmitResult, error) {
	f, caps, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	if caps.MaxSubmissions > 0 {
		counters, err := s.agg.Counters(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load counters: %w", err)
		}
		if caps.SubmissionLimitReached(counters.Submissions) {
			return nil, fmt.Errorf("%w: this form has reached its submission limit", errs.ErrQuotaExceeded)
		}
	}

	settings := plan.EffectiveSettings(f.Settings, caps)

	data, fieldErrs := s.validator.Validate(f, payload)
	if len(fieldErrs) > 0 {
		return &SubmitResult{FieldErrors: fieldErrs, Settings: settings}, nil
	}

	sub := &model.Submission{
		ID:        ulid.Make().String(),
		FormID:    f.ID,
		Data:      data,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	created, err := s.store.CreateSubmission(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	if _, err := s.agg.RecordSubmission(ctx, f.ID); err != nil {
		// The submission is already durable; a lost counter update is only
		// logged.
		s.log.Warn("failed to record submission counter", zap.String("form_id", f.ID), zap.Error(err))
	}
	s.publish(f.ID, "form.submitted", map[string]interface{}{"submissionId": created.ID})

	if settings.EnableEmailNotifications && settings.NotificationEmail != "" {
		if err := s.mailer.SendSubmissionNotification(settings.NotificationEmail, f.Title); err != nil {
			s.log.Warn("failed to send submission notification",
				zap.String("form_id", f.ID), zap.Error(err))
		}
	}

	return &SubmitResult{Submission: created, Settings: settings}, nil
}

// resolve looks up a published form by slug and the owner's capabilities.
func (s *PublicService) resolve(ctx context.Context, slug string) (*model.Form, plan.Capabilities, error) {
	f, ok := s.cache.Get(slug)
	if !ok {
		var err error
		f, err = s.store.GetFormBySlug(ctx, slug)
		if err != nil {
			return nil, plan.Capabilities{}, err
		}
		s.cache.Add(slug, f)
	}

	if !f.IsPublished {
		return nil, plan.Capabilities{}, errs.ErrNotFound
	}
	if f.Expired(time.Now()) {
		return nil, plan.Capabilities{}, errs.ErrExpired
	}

	owner, err := s.store.GetUser(ctx, f.OwnerID)
	if err != nil {
		return nil, plan.Capabilities{}, fmt.Errorf("failed to load form owner: %w", err)
	}
	return f, plan.For(owner.Plan), nil
}

func (s *PublicService) publish(formID, event string, extra map[string]interface{}) {
	msg := map[string]interface{}{"event": event, "formId": formID}
	for k, v := range extra {
		msg[k] = v
	}
	if err := s.bus.PublishForm(formID, msg); err != nil {
		s.log.Debug("event publish failed", zap.String("form_id", formID), zap.Error(err))
	}
}
