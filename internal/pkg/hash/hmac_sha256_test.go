package hash

import "testing"

func TestHMACSHA256(t *testing.T) {
	t.Run("EmptySecret", func(t *testing.T) {
		if _, err := NewHMACSHA256(nil); err != ErrEmptySecret {
			t.Fatalf("expected ErrEmptySecret, got %v", err)
		}
	})

	t.Run("VerifyMatches", func(t *testing.T) {
		// Arrange
		h, _ := NewHMACSHA256([]byte("pepper"))
		digest, _ := h.Hash("correct horse")

		// Act & Assert
		if !h.Verify(digest, "correct horse") {
			t.Fatalf("expected match")
		}
		if h.Verify(digest, "correct horsE") {
			t.Fatalf("expected mismatch")
		}
		if len(digest) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(digest))
		}
	})

	t.Run("KeyMatters", func(t *testing.T) {
		// Arrange
		a, _ := NewHMACSHA256([]byte("a"))
		b, _ := NewHMACSHA256([]byte("b"))
		digest, _ := a.Hash("secret")

		// Act & Assert
		if b.Verify(digest, "secret") {
			t.Fatalf("digest from another key must not verify")
		}
	})
}
