package clock

import (
	"testing"
	"time"
)

func TestFrozen(t *testing.T) {
	// Arrange
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewFrozen(start)

	// Act
	c.Advance(90 * time.Second)

	// Assert
	if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("Now() = %v", got)
	}
}

func TestTimeClocker_UTC(t *testing.T) {
	if loc := New().Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}
