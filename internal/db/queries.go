package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

// User represents a user row
type User struct {
	ID                string
	Email             string
	Username          string
	FirstName         *string
	LastName          *string
	PasswordHash      string
	IsVerified        bool
	VerificationToken *string
	Plan              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const userColumns = `id, email, username, first_name, last_name, password_hash,
	is_verified, verification_token, plan, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.IsVerified, &u.VerificationToken, &u.Plan, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

type CreateUserParams struct {
	ID                string
	Email             string
	Username          string
	FirstName         *string
	LastName          *string
	PasswordHash      string
	VerificationToken *string
}

func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx,
		`INSERT INTO users (id, email, username, first_name, last_name, password_hash, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		p.ID, p.Email, p.Username, p.FirstName, p.LastName, p.PasswordHash, p.VerificationToken,
	))
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// VerifyUser marks the user holding the verification token as verified and
// clears the token.
func (q *Queries) VerifyUser(ctx context.Context, token string) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx,
		`UPDATE users SET is_verified = TRUE, verification_token = NULL, updated_at = NOW()
		WHERE verification_token = $1
		RETURNING `+userColumns,
		token,
	))
}

func (q *Queries) UpdateUserProfile(ctx context.Context, id string, username string, firstName, lastName *string) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx,
		`UPDATE users SET username = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, username, firstName, lastName,
	))
}

func (q *Queries) UpdateUserPlan(ctx context.Context, id, plan string) error {
	_, err := q.Pool.Exec(ctx,
		"UPDATE users SET plan = $2, updated_at = NOW() WHERE id = $1",
		id, plan,
	)
	return err
}

// Form represents a form row. Fields and settings stay as raw JSONB here; the
// service layer owns the typed document.
type Form struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	Slug        string
	IsPublished bool
	ExpiresAt   *time.Time
	Fields      []byte
	Settings    []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const formColumns = `id, owner_id, title, description, slug, is_published,
	expires_at, fields, settings, created_at, updated_at`

func scanForm(row pgx.Row) (Form, error) {
	var f Form
	err := row.Scan(
		&f.ID, &f.OwnerID, &f.Title, &f.Description, &f.Slug, &f.IsPublished,
		&f.ExpiresAt, &f.Fields, &f.Settings, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

type CreateFormParams struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	Slug        string
	Fields      []byte
	Settings    []byte
}

func (q *Queries) CreateForm(ctx context.Context, p CreateFormParams) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx,
		`INSERT INTO forms (id, owner_id, title, description, slug, fields, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+formColumns,
		p.ID, p.OwnerID, p.Title, p.Description, p.Slug, p.Fields, p.Settings,
	))
}

// GetFormByID is ownership-scoped: a form only resolves for its owner.
func (q *Queries) GetFormByID(ctx context.Context, id, ownerID string) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx,
		`SELECT `+formColumns+` FROM forms WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
}

func (q *Queries) GetFormBySlug(ctx context.Context, slug string) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx,
		`SELECT `+formColumns+` FROM forms WHERE slug = $1`, slug))
}

func (q *Queries) ListFormsByOwner(ctx context.Context, ownerID string) ([]Form, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT `+formColumns+` FROM forms WHERE owner_id = $1 ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := make([]Form, 0)
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (q *Queries) CountFormsByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := q.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM forms WHERE owner_id = $1", ownerID,
	).Scan(&count)
	return count, err
}

func (q *Queries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.Pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM forms WHERE slug = $1)", slug,
	).Scan(&exists)
	return exists, err
}

type UpdateFormParams struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	IsPublished bool
	ExpiresAt   *time.Time
	Fields      []byte
	Settings    []byte
}

// UpdateForm is a full document replace; the editor always saves the whole
// form.
func (q *Queries) UpdateForm(ctx context.Context, p UpdateFormParams) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx,
		`UPDATE forms SET title = $3, description = $4, is_published = $5,
			expires_at = $6, fields = $7, settings = $8, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+formColumns,
		p.ID, p.OwnerID, p.Title, p.Description, p.IsPublished, p.ExpiresAt, p.Fields, p.Settings,
	))
}

// DeleteForm removes the form; submissions and analytics go with it via
// ON DELETE CASCADE.
func (q *Queries) DeleteForm(ctx context.Context, id, ownerID string) error {
	result, err := q.Pool.Exec(ctx,
		"DELETE FROM forms WHERE id = $1 AND owner_id = $2", id, ownerID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Submission represents a submission row
type Submission struct {
	ID          string
	FormID      string
	Data        []byte
	IPAddress   *string
	UserAgent   *string
	SubmittedAt time.Time
}

type CreateSubmissionParams struct {
	ID        string
	FormID    string
	Data      []byte
	IPAddress *string
	UserAgent *string
}

func (q *Queries) CreateSubmission(ctx context.Context, p CreateSubmissionParams) (Submission, error) {
	var s Submission
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO form_submissions (id, form_id, data, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, form_id, data, ip_address, user_agent, submitted_at`,
		p.ID, p.FormID, p.Data, p.IPAddress, p.UserAgent,
	).Scan(&s.ID, &s.FormID, &s.Data, &s.IPAddress, &s.UserAgent, &s.SubmittedAt)
	return s, err
}

func (q *Queries) ListSubmissionsByForm(ctx context.Context, formID string, limit int) ([]Submission, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, form_id, data, ip_address, user_agent, submitted_at
		FROM form_submissions
		WHERE form_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2`,
		formID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]Submission, 0)
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.FormID, &s.Data, &s.IPAddress, &s.UserAgent, &s.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Analytics represents a counters row
type Analytics struct {
	FormID                string
	Views                 int64
	Submissions           int64
	ConversionRate        float64
	AverageCompletionTime *int64
	UpdatedAt             time.Time
}

const analyticsColumns = `form_id, views, submissions, conversion_rate,
	average_completion_time, updated_at`

func scanAnalytics(row pgx.Row) (Analytics, error) {
	var a Analytics
	err := row.Scan(
		&a.FormID, &a.Views, &a.Submissions, &a.ConversionRate,
		&a.AverageCompletionTime, &a.UpdatedAt,
	)
	return a, err
}

// IncrementViews bumps the view counter in a single atomic upsert and
// recomputes the conversion rate in the same statement. Concurrent calls
// never lose an update.
func (q *Queries) IncrementViews(ctx context.Context, formID string) (Analytics, error) {
	return scanAnalytics(q.Pool.QueryRow(ctx,
		`INSERT INTO form_analytics (form_id, views, submissions, conversion_rate, updated_at)
		VALUES ($1, 1, 0, 0, NOW())
		ON CONFLICT (form_id) DO UPDATE SET
			views = form_analytics.views + 1,
			conversion_rate = form_analytics.submissions::double precision
				/ (form_analytics.views + 1) * 100,
			updated_at = NOW()
		RETURNING `+analyticsColumns,
		formID,
	))
}

// IncrementSubmissions bumps the submission counter, same contract as
// IncrementViews.
func (q *Queries) IncrementSubmissions(ctx context.Context, formID string) (Analytics, error) {
	return scanAnalytics(q.Pool.QueryRow(ctx,
		`INSERT INTO form_analytics (form_id, views, submissions, conversion_rate, updated_at)
		VALUES ($1, 0, 1, 0, NOW())
		ON CONFLICT (form_id) DO UPDATE SET
			submissions = form_analytics.submissions + 1,
			conversion_rate = CASE WHEN form_analytics.views > 0
				THEN (form_analytics.submissions + 1)::double precision
					/ form_analytics.views * 100
				ELSE 0 END,
			updated_at = NOW()
		RETURNING `+analyticsColumns,
		formID,
	))
}

func (q *Queries) GetAnalytics(ctx context.Context, formID string) (Analytics, error) {
	return scanAnalytics(q.Pool.QueryRow(ctx,
		`SELECT `+analyticsColumns+` FROM form_analytics WHERE form_id = $1`,
		formID,
	))
}
