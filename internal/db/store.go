package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"formcraft/internal/errs"
	"formcraft/internal/model"

	"github.com/jackc/pgx/v5"
)

// Store adapts Queries to the model-typed interfaces the service layer
// consumes. It owns the JSONB (de)serialization of form documents and maps
// missing rows to the shared not-found sentinel.
type Store struct {
	*Queries
}

func NewStore(q *Queries) *Store {
	return &Store{Queries: q}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// Users

func (s *Store) CreateUser(ctx context.Context, u model.User, passwordHash, verificationToken string) (model.User, error) {
	row, err := s.Queries.CreateUser(ctx, CreateUserParams{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		FirstName:         optStr(u.FirstName),
		LastName:          optStr(u.LastName),
		PasswordHash:      passwordHash,
		VerificationToken: optStr(verificationToken),
	})
	if err != nil {
		return model.User{}, err
	}
	return rowToUser(row), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row, err := s.Queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return rowToUser(row), nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	row, err := s.Queries.GetUserByEmail(ctx, email)
	if err != nil {
		return model.Account{}, notFound(err)
	}
	return model.Account{User: rowToUser(row), PasswordHash: row.PasswordHash}, nil
}

func (s *Store) VerifyUser(ctx context.Context, token string) (model.User, error) {
	row, err := s.Queries.VerifyUser(ctx, token)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return rowToUser(row), nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, id, username, firstName, lastName string) (model.User, error) {
	row, err := s.Queries.UpdateUserProfile(ctx, id, username, optStr(firstName), optStr(lastName))
	if err != nil {
		return model.User{}, notFound(err)
	}
	return rowToUser(row), nil
}

func (s *Store) UpdateUserPlan(ctx context.Context, id string, p model.PlanType) error {
	return s.Queries.UpdateUserPlan(ctx, id, string(p))
}

// Forms

func (s *Store) CreateForm(ctx context.Context, f *model.Form) (*model.Form, error) {
	fields, settings, err := marshalDocument(f)
	if err != nil {
		return nil, err
	}
	row, err := s.Queries.CreateForm(ctx, CreateFormParams{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Title:       f.Title,
		Description: optStr(f.Description),
		Slug:        f.Slug,
		Fields:      fields,
		Settings:    settings,
	})
	if err != nil {
		return nil, err
	}
	return rowToForm(row)
}

func (s *Store) GetForm(ctx context.Context, id, ownerID string) (*model.Form, error) {
	row, err := s.Queries.GetFormByID(ctx, id, ownerID)
	if err != nil {
		return nil, notFound(err)
	}
	return rowToForm(row)
}

func (s *Store) GetFormBySlug(ctx context.Context, slug string) (*model.Form, error) {
	row, err := s.Queries.GetFormBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	return rowToForm(row)
}

func (s *Store) ListForms(ctx context.Context, ownerID string) ([]model.Form, error) {
	rows, err := s.Queries.ListFormsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	forms := make([]model.Form, 0, len(rows))
	for _, row := range rows {
		f, err := rowToForm(row)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *f)
	}
	return forms, nil
}

func (s *Store) CountForms(ctx context.Context, ownerID string) (int, error) {
	return s.Queries.CountFormsByOwner(ctx, ownerID)
}

func (s *Store) UpdateForm(ctx context.Context, f *model.Form) (*model.Form, error) {
	fields, settings, err := marshalDocument(f)
	if err != nil {
		return nil, err
	}
	row, err := s.Queries.UpdateForm(ctx, UpdateFormParams{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Title:       f.Title,
		Description: optStr(f.Description),
		IsPublished: f.IsPublished,
		ExpiresAt:   f.ExpiresAt,
		Fields:      fields,
		Settings:    settings,
	})
	if err != nil {
		return nil, notFound(err)
	}
	return rowToForm(row)
}

func (s *Store) DeleteForm(ctx context.Context, id, ownerID string) error {
	return notFound(s.Queries.DeleteForm(ctx, id, ownerID))
}

// Submissions

func (s *Store) CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission data: %w", err)
	}
	row, err := s.Queries.CreateSubmission(ctx, CreateSubmissionParams{
		ID:        sub.ID,
		FormID:    sub.FormID,
		Data:      data,
		IPAddress: optStr(sub.IPAddress),
		UserAgent: optStr(sub.UserAgent),
	})
	if err != nil {
		return nil, err
	}
	return rowToSubmission(row)
}

func (s *Store) ListSubmissions(ctx context.Context, formID string, limit int) ([]model.Submission, error) {
	rows, err := s.Queries.ListSubmissionsByForm(ctx, formID, limit)
	if err != nil {
		return nil, err
	}
	subs := make([]model.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := rowToSubmission(row)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, nil
}

// Analytics

func (s *Store) IncrementViews(ctx context.Context, formID string) (model.Analytics, error) {
	row, err := s.Queries.IncrementViews(ctx, formID)
	if err != nil {
		return model.Analytics{}, err
	}
	return rowToAnalytics(row), nil
}

func (s *Store) IncrementSubmissions(ctx context.Context, formID string) (model.Analytics, error) {
	row, err := s.Queries.IncrementSubmissions(ctx, formID)
	if err != nil {
		return model.Analytics{}, err
	}
	return rowToAnalytics(row), nil
}

// GetAnalytics returns zero counters for a form that has never been viewed or
// submitted; the row is created lazily by the first increment.
func (s *Store) GetAnalytics(ctx context.Context, formID string) (model.Analytics, error) {
	row, err := s.Queries.GetAnalytics(ctx, formID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Analytics{FormID: formID}, nil
	}
	if err != nil {
		return model.Analytics{}, err
	}
	return rowToAnalytics(row), nil
}

// Conversions

func rowToUser(r User) model.User {
	return model.User{
		ID:         r.ID,
		Email:      r.Email,
		Username:   r.Username,
		FirstName:  strVal(r.FirstName),
		LastName:   strVal(r.LastName),
		IsVerified: r.IsVerified,
		Plan:       model.PlanType(r.Plan),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func rowToForm(r Form) (*model.Form, error) {
	f := &model.Form{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: strVal(r.Description),
		Slug:        r.Slug,
		IsPublished: r.IsPublished,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Fields, &f.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form fields: %w", err)
	}
	if err := json.Unmarshal(r.Settings, &f.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form settings: %w", err)
	}
	return f, nil
}

func marshalDocument(f *model.Form) (fields, settings []byte, err error) {
	if f.Fields == nil {
		f.Fields = []model.FieldDefinition{}
	}
	fields, err = json.Marshal(f.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal form fields: %w", err)
	}
	settings, err = json.Marshal(f.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal form settings: %w", err)
	}
	return fields, settings, nil
}

func rowToSubmission(r Submission) (*model.Submission, error) {
	sub := &model.Submission{
		ID:          r.ID,
		FormID:      r.FormID,
		IPAddress:   strVal(r.IPAddress),
		UserAgent:   strVal(r.UserAgent),
		SubmittedAt: r.SubmittedAt,
	}
	if err := json.Unmarshal(r.Data, &sub.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission data: %w", err)
	}
	return sub, nil
}

func rowToAnalytics(r Analytics) model.Analytics {
	return model.Analytics{
		FormID:                r.FormID,
		Views:                 r.Views,
		Submissions:           r.Submissions,
		ConversionRate:        r.ConversionRate,
		AverageCompletionTime: r.AverageCompletionTime,
		UpdatedAt:             r.UpdatedAt,
	}
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
