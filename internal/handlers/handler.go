// Package handlers exposes the account lifecycle over HTTP.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prudhvinik1/customer-service/internal/events"
	"github.com/prudhvinik1/customer-service/internal/logging"
	"github.com/prudhvinik1/customer-service/internal/metrics"
	"github.com/prudhvinik1/customer-service/internal/models"
	"github.com/prudhvinik1/customer-service/internal/services"
)

// AccountService is the lifecycle API the handlers drive.
type AccountService interface {
	SignUp(ctx context.Context, req services.SignUpRequest) (*services.Message, error)
	SignIn(ctx context.Context, email, password string) (*services.SignInResponse, error)
	VerifyEmail(ctx context.Context, token string) (*services.Message, error)
	RequestPasswordReset(ctx context.Context, email string) (*services.Message, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*services.Message, error)
	ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword, newPassword string) (*services.Message, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, fields map[string]any) (*models.Account, error)
	AddAddress(ctx context.Context, accountID uuid.UUID, input services.AddressInput) (*models.Account, error)
	GetProfile(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	DeleteProfile(ctx context.Context, accountID uuid.UUID) (*services.DeleteResult, error)
}

// TokenVerifier resolves a bearer token to the identity it was issued for.
type TokenVerifier interface {
	VerifySessionToken(token string) (*services.Identity, error)
}

type Config struct {
	// ShoppingChannel is where account deletion events are published.
	ShoppingChannel string
	PhoneRegion     string
}

type Handler struct {
	accounts  AccountService
	tokens    TokenVerifier
	publisher events.Publisher
	logger    logging.Logger
	reporter  logging.Reporter
	metrics   *metrics.Metrics
	cfg       Config
}

func NewHandler(
	accounts AccountService,
	tokens TokenVerifier,
	publisher events.Publisher,
	logger logging.Logger,
	reporter logging.Reporter,
	m *metrics.Metrics,
	cfg Config,
) *Handler {
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = "US"
	}
	return &Handler{
		accounts:  accounts,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
		reporter:  reporter,
		metrics:   m,
		cfg:       cfg,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)
	r.Get("/verify/{token}", h.VerifyEmail)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
	r.Get("/whoami", h.WhoAmI)

	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/address", h.AddAddress)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Delete("/profile", h.DeleteProfile)
		r.Post("/change-password", h.ChangePassword)
	})

	return r
}
