package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/customer-service/internal/logging"
	"github.com/prudhvinik1/customer-service/internal/mailer"
	"github.com/prudhvinik1/customer-service/internal/metrics"
	"github.com/prudhvinik1/customer-service/internal/models"
	"github.com/prudhvinik1/customer-service/internal/repositories"
	"github.com/prudhvinik1/customer-service/internal/utils"
)

const DefaultLinkBaseURL = "http://localhost:3000"

// SessionIssuer issues bearer tokens for signed-in accounts.
type SessionIssuer interface {
	IssueSessionToken(accountID uuid.UUID, email string) (string, error)
}

type AccountService struct {
	accountRepo     repositories.AccountRepository
	sessions        SessionIssuer
	mailer          mailer.Mailer
	logger          logging.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
	linkBaseURL     string
	requireVerified bool
}

type Option func(*AccountService)

func WithClock(now func() time.Time) Option {
	return func(s *AccountService) { s.now = now }
}

// WithLinkBaseURL sets the base URL that verification and reset links are built on.
func WithLinkBaseURL(baseURL string) Option {
	return func(s *AccountService) { s.linkBaseURL = strings.TrimRight(baseURL, "/") }
}

// WithRequireVerified makes SignIn reject accounts whose email is not verified yet.
func WithRequireVerified(require bool) Option {
	return func(s *AccountService) { s.requireVerified = require }
}

func WithLogger(logger logging.Logger) Option {
	return func(s *AccountService) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AccountService) { s.metrics = m }
}

func NewAccountService(
	accountRepo repositories.AccountRepository,
	sessions SessionIssuer,
	mailer mailer.Mailer,
	opts ...Option,
) *AccountService {
	s := &AccountService{
		accountRepo: accountRepo,
		sessions:    sessions,
		mailer:      mailer,
		logger:      logging.Discard(),
		metrics:     metrics.Nop(),
		now:         time.Now,
		linkBaseURL: DefaultLinkBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SignUpRequest struct {
	Email    string
	Password string
	Phone    string
}

type AddressInput struct {
	Street     string
	PostalCode string
	City       string
	Country    string
}

type Message struct {
	Message string `json:"message"`
}

type SignInResponse struct {
	ID    uuid.UUID `json:"id"`
	Token string    `json:"token"`
}

// DeleteResult holds the removed account (nil if it did not exist) and the
// event the caller must forward to subscribed services.
type DeleteResult struct {
	Data    *models.Account
	Payload models.DeletionEvent
}

func (s *AccountService) SignUp(ctx context.Context, req SignUpRequest) (*Message, error) {
	email := normalizeEmail(req.Email)

	_, err := s.accountRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	salt, hash, err := s.hashNewPassword(req.Password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := utils.NewOneTimeToken(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		Phone:        req.Phone,
	}
	account.SetVerifyToken(token, expiresAt)

	err = s.accountRepo.Create(ctx, account)
	if errors.Is(err, repositories.ErrAlreadyExists) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	s.metrics.TokenGenerations.WithLabelValues("verify").Inc()
	s.logger.Info(ctx, "account created", "account_id", account.ID)

	// The account stays created if the email cannot be sent.
	if err := s.sendEmail(ctx, "verify", mailer.VerificationEmail(account.Email, s.verifyLink(token))); err != nil {
		return nil, err
	}

	return &Message{Message: "Signup successful, please verify your email."}, nil
}

func (s *AccountService) SignIn(ctx context.Context, email, password string) (*SignInResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		s.metrics.AuthFailures.WithLabelValues("password").Inc()
		return nil, ErrEmailNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	ok, err := utils.VerifyPassword(password, account.PasswordHash, account.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.AuthFailures.WithLabelValues("password").Inc()
		return nil, ErrPasswordMismatch
	}

	if s.requireVerified && !account.IsVerified {
		s.metrics.AuthFailures.WithLabelValues("unverified").Inc()
		return nil, ErrEmailNotVerified
	}

	token, err := s.sessions.IssueSessionToken(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.metrics.AuthSuccesses.WithLabelValues("password").Inc()
	s.metrics.TokenGenerations.WithLabelValues("session").Inc()

	return &SignInResponse{ID: account.ID, Token: token}, nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*Message, error) {
	account, err := s.accountByToken(ctx, token, s.accountRepo.GetByVerifyToken)
	if err != nil {
		return nil, err
	}

	if !utils.TokenValid(account.VerifyToken, account.VerifyTokenExpiry, s.now()) {
		return nil, ErrTokenExpired
	}

	account.IsVerified = true
	account.ClearVerifyToken()
	if err := s.updateAccount(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "email verified", "account_id", account.ID)

	return &Message{Message: "Email verified successfully"}, nil
}

// RequestPasswordReset issues a reset token and mails the reset link.
// An unknown email is reported as ErrEmailNotRegistered.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (*Message, error) {
	account, err := s.accountRepo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrEmailNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	token, expiresAt, err := utils.NewOneTimeToken(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	account.SetResetToken(token, expiresAt)
	if err := s.updateAccount(ctx, account); err != nil {
		return nil, err
	}
	s.metrics.TokenGenerations.WithLabelValues("reset").Inc()

	if err := s.sendEmail(ctx, "reset", mailer.PasswordResetEmail(account.Email, s.resetLink(token))); err != nil {
		return nil, err
	}

	return &Message{Message: "Password reset link has been sent to your email."}, nil
}

func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (*Message, error) {
	account, err := s.accountByToken(ctx, token, s.accountRepo.GetByResetToken)
	if err != nil {
		return nil, err
	}

	if !utils.TokenValid(account.ResetToken, account.ResetTokenExpiry, s.now()) {
		return nil, ErrTokenExpired
	}

	account.Salt, account.PasswordHash, err = s.hashNewPassword(newPassword)
	if err != nil {
		return nil, err
	}
	account.ClearResetToken()
	if err := s.updateAccount(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "password reset", "account_id", account.ID)

	return &Message{Message: "Password has been reset successfully"}, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword, newPassword string) (*Message, error) {
	account, err := s.accountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(currentPassword, account.PasswordHash, account.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrCurrentPassword
	}

	account.Salt, account.PasswordHash, err = s.hashNewPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.updateAccount(ctx, account); err != nil {
		return nil, err
	}

	return &Message{Message: "Password changed successfully"}, nil
}

// UpdateProfile applies firstName, lastName and phone from fields. Any other
// key is ignored.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uuid.UUID, fields map[string]any) (*models.Account, error) {
	update, err := filterProfileFields(fields)
	if err != nil {
		return nil, err
	}

	account, err := s.accountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	update.Apply(account)
	if err := s.updateAccount(ctx, account); err != nil {
		return nil, err
	}

	return s.withAddresses(ctx, account)
}

func (s *AccountService) AddAddress(ctx context.Context, accountID uuid.UUID, input AddressInput) (*models.Account, error) {
	account, err := s.accountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	address := &models.Address{
		Street:     input.Street,
		PostalCode: input.PostalCode,
		City:       input.City,
		Country:    input.Country,
	}
	err = s.accountRepo.AddAddress(ctx, account.ID, address)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add address: %w", err)
	}

	return s.withAddresses(ctx, account)
}

func (s *AccountService) GetProfile(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.withAddresses(ctx, account)
}

// DeleteProfile removes the account without checking that it exists first.
func (s *AccountService) DeleteProfile(ctx context.Context, accountID uuid.UUID) (*DeleteResult, error) {
	account, err := s.accountRepo.Delete(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}
	s.logger.Info(ctx, "account deleted", "account_id", accountID, "existed", account != nil)

	return &DeleteResult{
		Data:    account,
		Payload: models.NewDeletionEvent(accountID),
	}, nil
}

func (s *AccountService) accountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *AccountService) accountByToken(
	ctx context.Context,
	token string,
	lookup func(context.Context, string) (*models.Account, error),
) (*models.Account, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	account, err := lookup(ctx, token)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by token: %w", err)
	}
	return account, nil
}

func (s *AccountService) updateAccount(ctx context.Context, account *models.Account) error {
	err := s.accountRepo.Update(ctx, account)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (s *AccountService) withAddresses(ctx context.Context, account *models.Account) (*models.Account, error) {
	addresses, err := s.accountRepo.ListAddresses(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load addresses: %w", err)
	}
	account.Addresses = addresses
	return account, nil
}

func (s *AccountService) hashNewPassword(password string) (salt, hash string, err error) {
	salt, err = utils.GenerateSalt()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err = utils.HashPassword(password, salt)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	return salt, hash, nil
}

func (s *AccountService) sendEmail(ctx context.Context, template string, msg mailer.Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.EmailsSent.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.metrics.EmailsSent.WithLabelValues(template, "ok").Inc()
	return nil
}

func (s *AccountService) verifyLink(token string) string {
	return s.linkBaseURL + "/verify/" + url.PathEscape(token)
}

func (s *AccountService) resetLink(token string) string {
	return s.linkBaseURL + "/reset-password?token=" + url.QueryEscape(token)
}

func filterProfileFields(fields map[string]any) (models.ProfileUpdate, error) {
	var update models.ProfileUpdate
	for key, raw := range fields {
		var target **string
		switch key {
		case "firstName":
			target = &update.FirstName
		case "lastName":
			target = &update.LastName
		case "phone":
			target = &update.Phone
		default:
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return models.ProfileUpdate{}, ErrInvalidProfile
		}
		*target = &value
	}
	return update, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
