package clock

import (
	"testing"
	"time"
)

func TestSystemClock_ReturnsUTCSecondPrecision(t *testing.T) {
	now := SystemClock{}.Now()

	if now.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", now.Location())
	}
	if now.Nanosecond() != 0 {
		t.Errorf("nanosecond = %d, want 0", now.Nanosecond())
	}
}

func TestFixedClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(5 * time.Second)
	if got := c.Now(); !got.Equal(start.Add(5 * time.Second)) {
		t.Errorf("after Advance Now() = %v, want %v", got, start.Add(5*time.Second))
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("after Set Now() = %v, want %v", got, later)
	}
}
