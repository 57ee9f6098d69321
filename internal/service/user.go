package service

import (
	"context"
	"errors"
	"fmt"

	"formcraft/internal/auth"
	"formcraft/internal/billing"
	"formcraft/internal/errs"
	"formcraft/internal/model"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// UserStore is the persistence surface for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User, passwordHash, verificationToken string) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	GetAccountByEmail(ctx context.Context, email string) (model.Account, error)
	VerifyUser(ctx context.Context, token string) (model.User, error)
	UpdateUserProfile(ctx context.Context, id, username, firstName, lastName string) (model.User, error)
	UpdateUserPlan(ctx context.Context, id string, p model.PlanType) error
}

// VerificationMailer is the slice of the mail sender account signup uses.
type VerificationMailer interface {
	SendVerification(to, link string) error
}

// UserService handles registration, login, email verification, profile edits
// and the plan upgrade flow.
type UserService struct {
	store   UserStore
	creds   auth.Credentials
	jwt     *auth.JWTConfig
	mailer  VerificationMailer
	billing billing.Client
	baseURL string
	log     *zap.Logger
}

func NewUserService(store UserStore, creds auth.Credentials, jwt *auth.JWTConfig, mailer VerificationMailer, bill billing.Client, baseURL string, log *zap.Logger) *UserService {
	return &UserService{
		store:   store,
		creds:   creds,
		jwt:     jwt,
		mailer:  mailer,
		billing: bill,
		baseURL: baseURL,
		log:     log,
	}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Register creates an unverified free-tier account and sends the verification
// link. A failed send does not roll the account back; verification can be
// re-requested out of band.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (model.User, error) {
	if _, err := s.store.GetAccountByEmail(ctx, input.Email); err == nil {
		return model.User{}, fmt.Errorf("%w: email is already registered", errs.ErrConflict)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.creds.Hash(input.Password)
	if err != nil {
		return model.User{}, err
	}

	token := ulid.Make().String()
	u := model.User{
		ID:        ulid.Make().String(),
		Email:     input.Email,
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Plan:      model.PlanFree,
	}
	created, err := s.store.CreateUser(ctx, u, hash, token)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	if err := s.mailer.SendVerification(created.Email, link); err != nil {
		s.log.Warn("failed to send verification mail",
			zap.String("user_id", created.ID), zap.Error(err))
	}

	return created, nil
}

// Login checks the credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller; an unverified account is
// reported as such.
func (s *UserService) Login(ctx context.Context, email, password string) (model.User, string, error) {
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, "", errs.ErrInvalidCredentials
		}
		return model.User{}, "", fmt.Errorf("failed to load account: %w", err)
	}

	if err := s.creds.Compare(account.PasswordHash, password); err != nil {
		return model.User{}, "", errs.ErrInvalidCredentials
	}
	if !account.IsVerified {
		return model.User{}, "", errs.ErrNotVerified
	}

	token, err := s.jwt.IssueToken(account.ID)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return account.User, token, nil
}

// VerifyEmail marks the account behind a verification token as verified.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (model.User, error) {
	return s.store.VerifyUser(ctx, token)
}

// GetUser loads one account by id.
func (s *UserService) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.store.GetUser(ctx, id)
}

type ProfileInput struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, input ProfileInput) (model.User, error) {
	return s.store.UpdateUserProfile(ctx, id, input.Username, input.FirstName, input.LastName)
}

// CreateUpgradePayment starts the Pro upgrade checkout for a user.
func (s *UserService) CreateUpgradePayment(ctx context.Context, userID string) (billing.Payment, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return billing.Payment{}, err
	}
	payment, err := s.billing.CreatePayment(ctx, u.Email)
	if err != nil {
		return billing.Payment{}, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

// ConfirmUpgrade checks the payment with the provider and, when it succeeded,
// switches the account to the Pro plan.
func (s *UserService) ConfirmUpgrade(ctx context.Context, userID, paymentID string) (model.User, error) {
	payment, err := s.billing.VerifyPayment(ctx, paymentID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to verify payment: %w", err)
	}
	if !payment.Succeeded() {
		return model.User{}, fmt.Errorf("payment %s has status %q", payment.ID, payment.Status)
	}

	if err := s.store.UpdateUserPlan(ctx, userID, model.PlanPro); err != nil {
		return model.User{}, fmt.Errorf("failed to update plan: %w", err)
	}
	return s.store.GetUser(ctx, userID)
}
