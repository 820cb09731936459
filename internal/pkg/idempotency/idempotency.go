// Package idempotency makes a keyed operation run at most once per key within
// a retention window, replaying the stored result to later callers.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress is returned while another caller holds the key.
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	// ErrInvalidState is returned when the stored value cannot be interpreted.
	ErrInvalidState = errors.New("idempotency: invalid state")
)

// State is the lifecycle of a key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string {
	return string(s)
}

const (
	defaultLockDuration = time.Minute
	defaultResultTTL    = 24 * time.Hour

	completedPrefix = "completed:"
)

// Idempotency runs fn once per key and replays its result afterwards.
type Idempotency interface {
	// Do returns fn's result, or the stored result of an earlier successful
	// run with replayed set. A failed run releases the key so it can be retried.
	Do(ctx context.Context, key string, fn func(context.Context) (string, error), opts ...Option) (result string, replayed bool, err error)
}

// Option configures Do.
type Option func(*options)

type options struct {
	lockDuration time.Duration
	resultTTL    time.Duration
}

// WithLockDuration bounds how long an in-flight run holds the key.
func WithLockDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockDuration = d
		}
	}
}

// WithResultTTL sets how long a completed result is replayed.
func WithResultTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.resultTTL = d
		}
	}
}

// StateTracker is an Idempotency backed by Redis.
type StateTracker struct {
	client redis.Cmdable
	prefix string
}

// New creates a StateTracker; keys are stored as prefix + key.
func New(client redis.Cmdable, prefix string) *StateTracker {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &StateTracker{client: client, prefix: prefix}
}

// Acquire claims key, or reports the state and stored result of a prior claim.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, string, error) {
	fk := s.prefix + key

	acquired, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateNone, "", err
	}
	if acquired {
		return StateNone, "", nil
	}

	value, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// released between SETNX and GET; one more try
		acquired, err = s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateNone, "", err
		}
		if acquired {
			return StateNone, "", nil
		}
		return StateInProgress, "", nil
	}
	if err != nil {
		return StateNone, "", err
	}

	switch {
	case value == StateInProgress.String():
		return StateInProgress, "", nil
	case strings.HasPrefix(value, completedPrefix):
		return StateCompleted, strings.TrimPrefix(value, completedPrefix), nil
	default:
		return StateNone, "", ErrInvalidState
	}
}

// Complete stores result for key.
func (s *StateTracker) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, completedPrefix+result, ttl).Err()
}

// Release forgets key.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Do implements Idempotency.
func (s *StateTracker) Do(
	ctx context.Context,
	key string,
	fn func(context.Context) (string, error),
	opts ...Option,
) (string, bool, error) {
	o := options{lockDuration: defaultLockDuration, resultTTL: defaultResultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	state, stored, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return "", false, err
	}

	switch state {
	case StateInProgress:
		return "", false, ErrAlreadyInProgress
	case StateCompleted:
		return stored, true, nil
	}

	result, err := fn(ctx)
	if err != nil {
		if relErr := s.Release(context.WithoutCancel(ctx), key); relErr != nil {
			return "", false, errors.Join(err, relErr)
		}
		return "", false, err
	}

	if err := s.Complete(context.WithoutCancel(ctx), key, result, o.resultTTL); err != nil {
		return result, false, err
	}

	return result, false, nil
}
