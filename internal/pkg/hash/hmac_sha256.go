package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is returned when the HMAC key is blank.
var ErrEmptySecret = errors.New("hash: secret is required")

// Hash computes and checks credential digests.
type Hash interface {
	Hash(plain string) (string, error)
	Verify(digest, plain string) bool
}

// HMACSHA256 is a Hash producing hex encoded HMAC-SHA256 digests.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a hasher keyed by secret.
func NewHMACSHA256(secret []byte) (*HMACSHA256, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &HMACSHA256{secret: append([]byte(nil), secret...)}, nil
}

// Hash returns the lower-case hex digest of plain.
func (s *HMACSHA256) Hash(plain string) (string, error) {
	return s.sum(plain), nil
}

// Verify reports whether digest was produced from plain.
func (s *HMACSHA256) Verify(digest, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(s.sum(plain))) == 1
}

func (s *HMACSHA256) sum(plain string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(plain))
	return hex.EncodeToString(h.Sum(nil))
}
