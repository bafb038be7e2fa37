package timerange

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func mustRange(t *testing.T, start time.Time, hours int) Range {
	t.Helper()
	r, err := New(start, start.Add(time.Duration(hours)*time.Hour))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNewValidation(t *testing.T) {
	if _, err := New(base, base); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("zero-length range: got %v", err)
	}
	if _, err := New(base.Add(time.Hour), base); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("inverted range: got %v", err)
	}
	if _, err := New(time.Time{}, base); !errors.Is(err, ErrZeroBound) {
		t.Errorf("zero start: got %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	r := mustRange(t, base, 4)
	cases := []struct {
		name  string
		other Range
		want  bool
	}{
		{"identical", mustRange(t, base, 4), true},
		{"contained", mustRange(t, base.Add(time.Hour), 1), true},
		{"partial tail", mustRange(t, base.Add(3*time.Hour), 4), true},
		{"back to back after", mustRange(t, base.Add(4*time.Hour), 2), false},
		{"back to back before", mustRange(t, base.Add(-2*time.Hour), 2), false},
		{"disjoint", mustRange(t, base.Add(10*time.Hour), 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Overlaps(tc.other); got != tc.want {
				t.Errorf("Overlaps: got %v, want %v", got, tc.want)
			}
			if got := tc.other.Overlaps(r); got != tc.want {
				t.Errorf("Overlaps (swapped): got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	r := mustRange(t, base, 2)
	if !r.Contains(base) {
		t.Error("start bound must be inside the half-open interval")
	}
	if r.Contains(base.Add(2 * time.Hour)) {
		t.Error("end bound must be outside the half-open interval")
	}
}

func TestFromDuration(t *testing.T) {
	r, err := FromDuration(base, 26*time.Hour)
	if err != nil {
		t.Fatalf("FromDuration: %v", err)
	}
	if r.Hours() != 26 {
		t.Errorf("Hours: got %d, want 26", r.Hours())
	}
	if _, err := FromDuration(base, 0); err == nil {
		t.Error("zero duration should fail")
	}
}
