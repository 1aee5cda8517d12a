package utils

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltLength = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// ErrMalformedInput signals a caller bug (bad salt or stored hash), never a user error.
var ErrMalformedInput = errors.New("malformed credential input")

func GenerateSalt() (string, error) {
	return MakeRandHexString(SaltLength)
}

// HashPassword derives an argon2id hash of password using the hex encoded salt.
// The same (password, salt) pair always yields the same hash.
func HashPassword(password, salt string) (string, error) {
	saltBytes, err := decodeSalt(salt)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches hash under salt. A malformed
// salt is returned as ErrMalformedInput rather than a mismatch.
func VerifyPassword(password, hash, salt string) (bool, error) {
	candidate, err := HashPassword(password, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1, nil
}

func decodeSalt(salt string) ([]byte, error) {
	if salt == "" {
		return nil, fmt.Errorf("%w: empty salt", ErrMalformedInput)
	}
	b, err := hex.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt is not hex: %v", ErrMalformedInput, err)
	}
	return b, nil
}
