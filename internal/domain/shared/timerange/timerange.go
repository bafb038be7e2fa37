package timerange

import (
	"errors"
	"time"
)

var (
	ErrEndBeforeStart = errors.New("timerange: end must be after start")
	ErrZeroBound      = errors.New("timerange: both bounds are required")
)

// Range is a half-open interval [Start, End). Bookings measured in
// rental periods always produce ranges of whole hours.
type Range struct {
	Start time.Time
	End   time.Time
}

// New validates and builds a range, normalizing bounds to UTC.
func New(start, end time.Time) (Range, error) {
	if start.IsZero() || end.IsZero() {
		return Range{}, ErrZeroBound
	}
	start = start.UTC()
	end = end.UTC()
	if !end.After(start) {
		return Range{}, ErrEndBeforeStart
	}
	return Range{Start: start, End: end}, nil
}

// FromDuration builds a range covering d starting at start.
func FromDuration(start time.Time, d time.Duration) (Range, error) {
	if d <= 0 {
		return Range{}, ErrEndBeforeStart
	}
	return New(start, start.Add(d))
}

// Overlaps reports whether two half-open intervals intersect.
// Back-to-back ranges ([a,b) and [b,c)) do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether t falls inside the interval.
func (r Range) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.Start) && t.Before(r.End)
}

// Hours returns the interval length in whole hours.
func (r Range) Hours() int {
	return int(r.End.Sub(r.Start) / time.Hour)
}
