package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	OneTimeTokenLength = 32
	OneTimeTokenTTL    = time.Hour
)

// MakeRandHexString returns size random bytes encoded as hex (2*size characters).
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewOneTimeToken issues a verification or reset token valid for OneTimeTokenTTL from now.
func NewOneTimeToken(now time.Time) (string, time.Time, error) {
	token, err := MakeRandHexString(OneTimeTokenLength)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(OneTimeTokenTTL), nil
}

// TokenValid reports whether a one-time token is present and not yet expired.
func TokenValid(token *string, expiresAt *time.Time, now time.Time) bool {
	if token == nil || *token == "" || expiresAt == nil {
		return false
	}
	return now.Before(*expiresAt)
}
