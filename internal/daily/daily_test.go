package daily

import (
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	ts := time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
	if got := DateKey(ts); got != "2025-03-09" {
		t.Fatalf("DateKey = %q, want UTC date 2025-03-09", got)
	}
}

func TestWordIndexDeterministic(t *testing.T) {
	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := WordIndex(day, "salt", 100)
	b := WordIndex(day, "salt", 100)
	if a != b {
		t.Fatalf("same date+salt gave different indices: %d vs %d", a, b)
	}
	if a < 0 || a >= 100 {
		t.Fatalf("index %d out of range [0,100)", a)
	}

	later := WordIndex(day.Add(48*time.Hour), "salt", 100)
	other := WordIndex(day, "pepper", 100)
	if a == later && a == other {
		t.Fatalf("index never varies across dates and salts")
	}
}

func TestWordIndexEmptyList(t *testing.T) {
	if got := WordIndex(time.Now(), "salt", 0); got != 0 {
		t.Fatalf("WordIndex with empty list = %d, want 0", got)
	}
}
