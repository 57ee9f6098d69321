package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"formcraft/internal/analytics"
	"formcraft/internal/auth"
	"formcraft/internal/billing"
	"formcraft/internal/errs"
	"formcraft/internal/model"
	"formcraft/internal/registry"
	"formcraft/internal/service"
	"formcraft/internal/submission"
	"formcraft/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is a single in-memory store backing all three services under test.
type memStore struct {
	mu          sync.Mutex
	users       map[string]model.User
	hashes      map[string]string
	tokens      map[string]string
	forms       map[string]*model.Form
	submissions map[string][]model.Submission
	analytics   map[string]model.Analytics

	lastSampleLimit int
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]model.User),
		hashes:      make(map[string]string),
		tokens:      make(map[string]string),
		forms:       make(map[string]*model.Form),
		submissions: make(map[string][]model.Submission),
		analytics:   make(map[string]model.Analytics),
	}
}

func (s *memStore) CreateUser(ctx context.Context, u model.User, passwordHash, verificationToken string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.hashes[u.ID] = passwordHash
	s.tokens[verificationToken] = u.ID
	return u, nil
}

func (s *memStore) GetUser(ctx context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return u, nil
}

func (s *memStore) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return model.Account{User: u, PasswordHash: s.hashes[u.ID]}, nil
		}
	}
	return model.Account{}, errs.ErrNotFound
}

func (s *memStore) VerifyUser(ctx context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	u := s.users[id]
	u.IsVerified = true
	s.users[id] = u
	return u, nil
}

func (s *memStore) UpdateUserProfile(ctx context.Context, id, username, firstName, lastName string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	u.Username = username
	u.FirstName = firstName
	u.LastName = lastName
	s.users[id] = u
	return u, nil
}

func (s *memStore) UpdateUserPlan(ctx context.Context, id string, p model.PlanType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.Plan = p
	s.users[id] = u
	return nil
}

func (s *memStore) CreateForm(ctx context.Context, f *model.Form) (*model.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *f
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	s.forms[f.ID] = &clone
	return &clone, nil
}

func (s *memStore) GetForm(ctx context.Context, id, ownerID string) (*model.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok || f.OwnerID != ownerID {
		return nil, errs.ErrNotFound
	}
	clone := *f
	return &clone, nil
}

func (s *memStore) GetFormBySlug(ctx context.Context, slug string) (*model.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.Slug == slug {
			clone := *f
			return &clone, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (s *memStore) ListForms(ctx context.Context, ownerID string) ([]model.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Form{}
	for _, f := range s.forms {
		if f.OwnerID == ownerID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *memStore) CountForms(ctx context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.forms {
		if f.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateForm(ctx context.Context, f *model.Form) (*model.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[f.ID]; !ok {
		return nil, errs.ErrNotFound
	}
	clone := *f
	clone.UpdatedAt = time.Now()
	s.forms[f.ID] = &clone
	return &clone, nil
}

func (s *memStore) DeleteForm(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok || f.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	delete(s.forms, id)
	delete(s.submissions, id)
	return nil
}

func (s *memStore) CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sub
	clone.SubmittedAt = time.Now()
	s.submissions[sub.FormID] = append(s.submissions[sub.FormID], clone)
	return &clone, nil
}

func (s *memStore) ListSubmissions(ctx context.Context, formID string, limit int) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSampleLimit = limit
	subs := s.submissions[formID]
	if len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (s *memStore) IncrementViews(ctx context.Context, formID string) (model.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.analytics[formID]
	a.FormID = formID
	a.Views++
	s.analytics[formID] = a
	return a, nil
}

func (s *memStore) IncrementSubmissions(ctx context.Context, formID string) (model.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.analytics[formID]
	a.FormID = formID
	a.Submissions++
	s.analytics[formID] = a
	return a, nil
}

func (s *memStore) GetAnalytics(ctx context.Context, formID string) (model.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.analytics[formID]
	a.FormID = formID
	return a, nil
}

type noopBus struct{}

func (noopBus) PublishForm(formID string, event map[string]interface{}) error { return nil }

type noopMailer struct{}

func (noopMailer) SendVerification(to, link string) error { return nil }

func (noopMailer) SendSubmissionNotification(to, formTitle string) error { return nil }

type stubBilling struct{}

func (stubBilling) CreatePayment(ctx context.Context, email string) (billing.Payment, error) {
	return billing.Payment{ID: "pay-1", ClientSecret: "cs-1", Status: "requires_confirmation"}, nil
}

func (stubBilling) VerifyPayment(ctx context.Context, id string) (billing.Payment, error) {
	return billing.Payment{ID: id, Status: "succeeded"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore, *auth.JWTConfig) {
	t.Helper()

	store := newMemStore()
	log := zap.NewNop()
	reg := registry.New()
	agg := analytics.NewAggregator(store)
	jwtCfg := auth.NewJWTConfig("test-secret")

	deps := Dependencies{
		Forms:      service.NewFormService(store, reg, agg),
		Public:     service.NewPublicService(store, agg, submission.NewValidator(reg), noopBus{}, noopMailer{}, log),
		Users:      service.NewUserService(store, auth.BcryptCredentials{}, jwtCfg, noopMailer{}, stubBilling{}, "http://localhost", log),
		JWT:        jwtCfg,
		Hub:        ws.NewHub(log),
		Log:        log,
		SampleSize: 25,
	}

	server := httptest.NewServer(Routes(deps))
	t.Cleanup(server.Close)
	return server, store, jwtCfg
}

func seedOwner(t *testing.T, store *memStore, jwtCfg *auth.JWTConfig, plan model.PlanType) (model.User, string) {
	t.Helper()
	u := model.User{ID: "owner-1", Email: "owner@example.com", Username: "owner", Plan: plan, IsVerified: true}
	store.users[u.ID] = u
	token, err := jwtCfg.IssueToken(u.ID)
	require.NoError(t, err)
	return u, token
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestOwnerRoutesRequireAuth(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/forms")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateAndFetchForm(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	_, token := seedOwner(t, store, jwtCfg, model.PlanFree)

	resp := doJSON(t, http.MethodPost, server.URL+"/forms", token, map[string]interface{}{
		"title": "Contact Us",
		"fields": []map[string]interface{}{
			{"id": "name", "type": "text", "label": "Name", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.Form
	decode(t, resp, &created)
	assert.Equal(t, "contact-us", created.Slug)

	resp = doJSON(t, http.MethodGet, server.URL+"/forms/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched model.Form
	decode(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	require.Len(t, fetched.Fields, 1)
	assert.Equal(t, model.KindText, fetched.Fields[0].Kind)
}

func TestCreateFormQuotaResponseShape(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	_, token := seedOwner(t, store, jwtCfg, model.PlanFree)

	for _, title := range []string{"One", "Two", "Three"} {
		resp := doJSON(t, http.MethodPost, server.URL+"/forms", token, map[string]interface{}{"title": title})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/forms", token, map[string]interface{}{"title": "Four"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body ErrorResponse
	decode(t, resp, &body)
	assert.True(t, body.LimitReached)
	assert.NotEmpty(t, body.Message)
}

func TestCreateFormValidationResponseShape(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	_, token := seedOwner(t, store, jwtCfg, model.PlanFree)

	resp := doJSON(t, http.MethodPost, server.URL+"/forms", token, map[string]interface{}{
		"title": "Broken",
		"fields": []map[string]interface{}{
			{"id": "color", "type": "select", "label": "Color"},
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	decode(t, resp, &body)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "color", body.Errors[0].FieldID)
	assert.False(t, body.LimitReached)
}

func seedPublishedForm(store *memStore) *model.Form {
	f := &model.Form{
		ID:          "form-1",
		OwnerID:     "owner-1",
		Title:       "Contact",
		Slug:        "contact",
		IsPublished: true,
		Fields: []model.FieldDefinition{
			{ID: "name", Kind: model.KindText, Label: "Name", Required: true},
		},
		Settings: model.DefaultSettings(),
	}
	store.forms[f.ID] = f
	return f
}

func TestPublicFormFetch(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	seedOwner(t, store, jwtCfg, model.PlanFree)
	seedPublishedForm(store)

	resp, err := http.Get(server.URL + "/public/forms/contact")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "Contact", body["title"])
	assert.Equal(t, int64(1), store.analytics["form-1"].Views)
}

func TestPublicFormUnknownSlug404(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/public/forms/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublicFormExpired403(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	seedOwner(t, store, jwtCfg, model.PlanPro)
	f := seedPublishedForm(store)
	past := time.Now().Add(-time.Hour)
	f.ExpiresAt = &past

	resp, err := http.Get(server.URL + "/public/forms/contact")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "This form has expired", body.Message)
}

func TestPublicSubmitSuccessAndValidationShape(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	seedOwner(t, store, jwtCfg, model.PlanFree)
	seedPublishedForm(store)

	resp := doJSON(t, http.MethodPost, server.URL+"/public/forms/contact/submit", "", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var failure ErrorResponse
	decode(t, resp, &failure)
	require.Len(t, failure.Errors, 1)
	assert.Equal(t, "name", failure.Errors[0].FieldID)
	assert.Equal(t, "This field is required", failure.Errors[0].Message)

	resp = doJSON(t, http.MethodPost, server.URL+"/public/forms/contact/submit", "", map[string]interface{}{"name": "Ada"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var success map[string]interface{}
	decode(t, resp, &success)
	assert.Equal(t, "Form submitted successfully!", success["message"])
	assert.NotEmpty(t, success["id"])
	require.Len(t, store.submissions["form-1"], 1)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	server, store, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "hunter22",
		"username": "ada",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var verifyToken string
	for tok := range store.tokens {
		verifyToken = tok
	}
	resp, err := http.Get(server.URL + "/verify-email?token=" + verifyToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decode(t, resp, &login)
	assert.NotEmpty(t, login.Token)

	resp = doJSON(t, http.MethodGet, server.URL+"/user", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me model.User
	decode(t, resp, &me)
	assert.Equal(t, "ada@example.com", me.Email)
}

func TestBillingUpgradeFlow(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	_, token := seedOwner(t, store, jwtCfg, model.PlanFree)

	resp := doJSON(t, http.MethodPost, server.URL+"/billing/upgrade", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payment map[string]string
	decode(t, resp, &payment)
	assert.Equal(t, "pay-1", payment["paymentId"])

	resp = doJSON(t, http.MethodPost, server.URL+"/billing/confirm", token, map[string]string{"paymentId": "pay-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u model.User
	decode(t, resp, &u)
	assert.Equal(t, model.PlanPro, u.Plan)
}

func TestLoginBadCredentials401(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFormAnalyticsSampleSize(t *testing.T) {
	server, store, jwtCfg := newTestServer(t)
	_, token := seedOwner(t, store, jwtCfg, model.PlanPro)
	seedPublishedForm(store)

	fetch := func(query string) {
		t.Helper()
		resp := doJSON(t, http.MethodGet, server.URL+"/forms/form-1/analytics"+query, token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// No sample parameter falls back to the configured size.
	fetch("")
	assert.Equal(t, 25, store.lastSampleLimit)

	fetch("?sample=10")
	assert.Equal(t, 10, store.lastSampleLimit)

	// Oversized requests clamp to the aggregator maximum.
	fetch("?sample=9999")
	assert.Equal(t, analytics.MaxSampleSize, store.lastSampleLimit)
}
