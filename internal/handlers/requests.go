package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
	"github.com/prudhvinik1/customer-service/internal/services"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
	maxBodyBytes      = 1 << 20
)

var passwordRules = []validation.Rule{validation.Required, validation.Length(minPasswordLength, maxPasswordLength)}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`

	region string
}

func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.Phone, validation.Required, phoneNumber(r.region)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type AddressRequest struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

func (r AddressRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Street, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.PostalCode, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Country, validation.Required, validation.Length(1, 100)),
	)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, passwordRules...),
	)
}

const maxNameLength = 100

// ProfileRequest keeps the raw PUT /profile body so the service can apply its
// own field whitelist. Whitelisted fields that are present are validated here.
type ProfileRequest struct {
	Fields map[string]any

	region string
}

func (r *ProfileRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Fields)
}

func (r ProfileRequest) Validate() error {
	rules := map[string][]validation.Rule{
		"firstName": {validation.Length(0, maxNameLength)},
		"lastName":  {validation.Length(0, maxNameLength)},
		"phone":     {validation.Required, phoneNumber(r.region)},
	}

	errs := validation.Errors{}
	for key, fieldRules := range rules {
		raw, ok := r.Fields[key]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			errs[key] = errors.New("must be a string")
			continue
		}
		errs[key] = validation.Validate(value, fieldRules...)
	}
	return errs.Filter()
}

// phoneNumber accepts anything libphonenumber can parse for the default region.
func phoneNumber(region string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := phonenumbers.Parse(s, region); err != nil {
			return errors.New("must be a valid phone number")
		}
		return nil
	})
}

// decode reads a JSON body into dst and runs its Validate method when it has one.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return &services.Error{Kind: services.ErrValidation, Message: "invalid request body"}
	}
	if v, ok := dst.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return &services.Error{Kind: services.ErrValidation, Message: err.Error()}
		}
	}
	return nil
}
