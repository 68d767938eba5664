// Package scale maps data values onto screen coordinates and back.
//
// Every scale maps the first domain bound to the first range bound, so a
// range may run "backwards" (e.g. a y axis from bottom to top).
package scale

import (
	"math"
	"time"
)

// Linear maps a numeric domain onto a numeric range.
type Linear struct {
	Domain [2]float64
	Range  [2]float64
}

// Map projects v into the range. A degenerate domain maps everything to
// the middle of the range.
func (s Linear) Map(v float64) float64 {
	d := s.Domain[1] - s.Domain[0]
	if d == 0 {
		return (s.Range[0] + s.Range[1]) / 2
	}
	return s.Range[0] + (v-s.Domain[0])/d*(s.Range[1]-s.Range[0])
}

// Invert maps a range value back into the domain.
func (s Linear) Invert(v float64) float64 {
	r := s.Range[1] - s.Range[0]
	if r == 0 {
		return s.Domain[0]
	}
	return s.Domain[0] + (v-s.Range[0])/r*(s.Domain[1]-s.Domain[0])
}

// Sqrt is a power scale with exponent 0.5. Use it for dot radii so that a
// dot's area, not its radius, grows with the value.
type Sqrt struct {
	Domain [2]float64
	Range  [2]float64
}

// Map projects v into the range.
func (s Sqrt) Map(v float64) float64 {
	return Linear{
		Domain: [2]float64{sqrt(s.Domain[0]), sqrt(s.Domain[1])},
		Range:  s.Range,
	}.Map(sqrt(v))
}

func sqrt(v float64) float64 {
	if v < 0 {
		return -math.Sqrt(-v)
	}
	return math.Sqrt(v)
}

// Time maps an interval of instants onto a numeric range.
type Time struct {
	Domain [2]time.Time
	Range  [2]float64
}

// Map projects t into the range. A degenerate domain maps everything to
// the middle of the range.
func (s Time) Map(t time.Time) float64 {
	span := s.Domain[1].Sub(s.Domain[0])
	if span == 0 {
		return (s.Range[0] + s.Range[1]) / 2
	}
	f := float64(t.Sub(s.Domain[0])) / float64(span)
	return s.Range[0] + f*(s.Range[1]-s.Range[0])
}

// Invert maps a range value back to an instant. The range bounds map to the
// domain bounds exactly; values outside the range extrapolate.
func (s Time) Invert(v float64) time.Time {
	r := s.Range[1] - s.Range[0]
	if r == 0 {
		return s.Domain[0]
	}
	f := (v - s.Range[0]) / r
	switch f {
	case 0:
		return s.Domain[0]
	case 1:
		return s.Domain[1]
	}
	span := s.Domain[1].Sub(s.Domain[0])
	return s.Domain[0].Add(time.Duration(f * float64(span)))
}

// Nice widens the domain outward to whole hours, days, months or years,
// picked from the width of the domain. Boundaries are computed on the
// wall clock of the first domain bound.
func (s Time) Nice() Time {
	d0, d1 := s.Domain[0], s.Domain[1]
	if d1.Before(d0) {
		d0, d1 = d1, d0
	}
	span := d1.Sub(d0)

	var floor func(time.Time) time.Time
	var step func(time.Time) time.Time
	switch {
	case span < 2*24*time.Hour:
		floor = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()) }
		step = func(t time.Time) time.Time { return t.Add(time.Hour) }
	case span < 60*24*time.Hour:
		floor = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()) }
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	case span < 2*365*24*time.Hour:
		floor = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()) }
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		floor = func(t time.Time) time.Time { return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location()) }
		step = func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }
	}

	loc := d0.Location()
	lo := floor(d0)
	hi := floor(d1.In(loc))
	if hi.Before(d1) {
		hi = step(hi)
	}

	out := s
	if s.Domain[1].Before(s.Domain[0]) {
		out.Domain = [2]time.Time{hi, lo}
	} else {
		out.Domain = [2]time.Time{lo, hi}
	}
	return out
}
