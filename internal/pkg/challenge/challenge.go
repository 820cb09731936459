// Package challenge issues and verifies short-lived one-time numeric codes.
//
// A challenge lives under an opaque key. Issuing replaces any outstanding
// challenge for the key; a correct verification consumes it. Expiry is checked
// lazily against the wall clock when verifying.
package challenge

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 5 * time.Minute

	codeDigits = 6
)

const (
	// DriverMemory keeps challenges in process memory.
	DriverMemory = "memory"
	// DriverRedis keeps challenges in Redis so several processes share them.
	DriverRedis = "redis"
)

var (
	// ErrEmptyKey is returned when a challenge key is blank.
	ErrEmptyKey = errors.New("challenge: key is required")

	codeSpace = big.NewInt(1_000_000)
)

// Store issues and verifies one-time codes.
type Store interface {
	// Issue generates a new code for key, replacing any previous one, and
	// returns the expiry it was stored with.
	Issue(ctx context.Context, key string) (code string, expiresAt time.Time, err error)
	// Verify reports whether candidate matches the live code for key.
	// A match consumes the challenge. An expired challenge is removed.
	Verify(ctx context.Context, key, candidate string) (bool, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	ttl     time.Duration
	entropy io.Reader
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithEntropy overrides the random source used to generate codes.
func WithEntropy(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.entropy = r
		}
	}
}

func newOptions(opts ...Option) options {
	o := options{ttl: DefaultTTL, entropy: rand.Reader}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// generateCode returns a uniformly distributed, zero-padded 6-digit string.
func generateCode(r io.Reader) (string, error) {
	n, err := rand.Int(r, codeSpace)
	if err != nil {
		return "", fmt.Errorf("challenge: generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
