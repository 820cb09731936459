package jwt

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type seqID struct{ n int }

func (s *seqID) Generate() string {
	s.n++
	return "jti-" + string(rune('a'+s.n))
}

func newTestJWT(t *testing.T, clock *fixedClock) *Symmetric {
	t.Helper()
	j, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte("k"), 64),
		Issuer:    "bankvault",
		Audiences: []string{"bankvault-web"},
		TTL:       time.Hour,
		Clock:     clock,
		UUID:      &seqID{},
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}
	return j
}

func TestNewHS512_ShortKey(t *testing.T) {
	if _, err := NewHS512(Config{Secret: []byte("short")}); !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestSymmetric_Session(t *testing.T) {
	// Arrange
	clock := &fixedClock{t: time.Now().Truncate(time.Second)}
	j := newTestJWT(t, clock)

	// Act
	tok, err := j.Generate(42, "alice")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	claims, err := j.Verify(tok)

	// Assert
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Subject != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSymmetric_Expired(t *testing.T) {
	// Arrange
	clock := &fixedClock{t: time.Now().Truncate(time.Second)}
	j := newTestJWT(t, clock)
	tok, _ := j.Generate(1, "bob")

	// Act
	clock.t = clock.t.Add(2 * time.Hour)
	_, err := j.Verify(tok)

	// Assert
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSymmetric_Scoped(t *testing.T) {
	clock := &fixedClock{t: time.Now().Truncate(time.Second)}
	j := newTestJWT(t, clock)

	tok, err := j.GenerateScoped(7, "disclosure:acc-1", 10*time.Minute)
	if err != nil {
		t.Fatalf("GenerateScoped() error = %v", err)
	}

	t.Run("MatchingAudience", func(t *testing.T) {
		claims, err := j.VerifyScoped(tok, "disclosure:acc-1")
		if err != nil || claims.UserID != 7 {
			t.Fatalf("expected valid scoped token, got %+v, %v", claims, err)
		}
	})

	t.Run("OtherAccount", func(t *testing.T) {
		if _, err := j.VerifyScoped(tok, "disclosure:acc-2"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("NotASession", func(t *testing.T) {
		if _, err := j.Verify(tok); err == nil {
			t.Fatalf("scoped token must not pass as a session")
		}
	})

	t.Run("SessionIsNotScoped", func(t *testing.T) {
		session, _ := j.Generate(7, "alice")
		if _, err := j.VerifyScoped(session, "disclosure:acc-1"); err == nil {
			t.Fatalf("session token must not pass as scoped")
		}
	})
}

func TestSymmetric_ScopedWithoutSessionAudience(t *testing.T) {
	// Arrange
	j, err := NewHS512(Config{
		Secret: bytes.Repeat([]byte("k"), 64),
		Issuer: "bankvault",
		TTL:    time.Hour,
		Clock:  &fixedClock{t: time.Now().Truncate(time.Second)},
		UUID:   &seqID{},
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}
	tok, _ := j.GenerateScoped(7, "disclosure:acc-1", time.Minute)

	// Act
	_, err = j.Verify(tok)

	// Assert
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
