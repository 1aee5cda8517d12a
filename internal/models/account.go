package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Salt              string     `json:"-"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Phone             string     `json:"phone"`
	IsVerified        bool       `json:"isVerified"`
	VerifyToken       *string    `json:"-"`
	VerifyTokenExpiry *time.Time `json:"-"`
	ResetToken        *string    `json:"-"`
	ResetTokenExpiry  *time.Time `json:"-"`
	Addresses         []Address  `json:"address"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// SetVerifyToken sets the pending verification token and its expiry together.
func (a *Account) SetVerifyToken(token string, expiresAt time.Time) {
	a.VerifyToken = &token
	a.VerifyTokenExpiry = &expiresAt
}

func (a *Account) ClearVerifyToken() {
	a.VerifyToken = nil
	a.VerifyTokenExpiry = nil
}

// SetResetToken sets the pending password reset token and its expiry together.
func (a *Account) SetResetToken(token string, expiresAt time.Time) {
	a.ResetToken = &token
	a.ResetTokenExpiry = &expiresAt
}

func (a *Account) ClearResetToken() {
	a.ResetToken = nil
	a.ResetTokenExpiry = nil
}

// ProfileUpdate carries the whitelisted profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

func (p ProfileUpdate) Apply(a *Account) {
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
}
