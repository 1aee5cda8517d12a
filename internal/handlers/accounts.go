package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prudhvinik1/customer-service/internal/services"
)

const whoAmIMessage = "/customer : I am Customer Service"

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	req := SignUpRequest{region: h.cfg.PhoneRegion}
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.accounts.SignUp(r.Context(), services.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req AddressRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accounts.AddAddress(r.Context(), identity.AccountID, services.AddressInput{
		Street:     req.Street,
		PostalCode: req.PostalCode,
		City:       req.City,
		Country:    req.Country,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	account, err := h.accounts.GetProfile(r.Context(), identity.AccountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	req := ProfileRequest{region: h.cfg.PhoneRegion}
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accounts.UpdateProfile(r.Context(), identity.AccountID, req.Fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req ChangePasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.accounts.ChangePassword(r.Context(), identity.AccountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteProfile removes the caller's account and tells the shopping service to
// drop its cart and wishlist. Publishing is fire-and-forget.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	res, err := h.accounts.DeleteProfile(r.Context(), identity.AccountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.publisher.Publish(r.Context(), h.cfg.ShoppingChannel, res.Payload); err != nil {
		h.metrics.EventsPublished.WithLabelValues(res.Payload.Event, "error").Inc()
		h.reporter.Report(r.Context(), err, "event", res.Payload.Event, "account_id", identity.AccountID)
	} else {
		h.metrics.EventsPublished.WithLabelValues(res.Payload.Event, "ok").Inc()
	}

	writeJSON(w, http.StatusOK, res.Data)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	res, err := h.accounts.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.accounts.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": whoAmIMessage})
}
