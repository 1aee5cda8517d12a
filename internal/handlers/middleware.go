package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/prudhvinik1/customer-service/internal/services"
)

type contextKey struct{}

var errNotAuthorized = &services.Error{Kind: services.ErrAuthorize, Message: "not authorized"}

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the resolved identity on the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			h.metrics.AuthFailures.WithLabelValues("bearer").Inc()
			h.writeError(w, r, errNotAuthorized)
			return
		}

		identity, err := h.tokens.VerifySessionToken(strings.TrimSpace(token))
		if err != nil {
			h.metrics.AuthFailures.WithLabelValues("bearer").Inc()
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the identity set by Authenticate.
func IdentityFromContext(ctx context.Context) (*services.Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(*services.Identity)
	return identity, ok
}
