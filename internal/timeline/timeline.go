// Package timeline filters commits by a time cursor driven by a 0-100
// progress value, and builds the scrollytelling steps that move it.
package timeline

import (
	"errors"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/commits"
	"github.com/Frank-Junran-Yang/portfolio/internal/model"
	"github.com/Frank-Junran-Yang/portfolio/internal/scale"
)

// ErrNoCommits is returned when a cursor is requested over no commits.
var ErrNoCommits = errors.New("no commits to build a time cursor from")

// Progress bounds.
const (
	MinProgress = 0.0
	MaxProgress = 100.0
)

// Filter returns the commits with timestamp <= cutoff, in their original
// order. The result shares the input's *Commit values.
func Filter(all []*model.Commit, cutoff time.Time) []*model.Commit {
	out := make([]*model.Commit, 0, len(all))
	for _, c := range all {
		if !c.Timestamp.After(cutoff) {
			out = append(out, c)
		}
	}
	return out
}

// Cursor maps progress in [0,100] onto the commits' time extent.
type Cursor struct {
	scale scale.Time
}

// NewCursor builds a cursor whose domain is the extent of commits.
func NewCursor(all []*model.Commit) (Cursor, error) {
	min, max, ok := commits.Extent(all)
	if !ok {
		return Cursor{}, ErrNoCommits
	}
	return Cursor{scale: scale.Time{
		Domain: [2]time.Time{min, max},
		Range:  [2]float64{MinProgress, MaxProgress},
	}}, nil
}

// Cutoff returns the latest instant whose progress is <= progress, so
// Filter(all, Cutoff(Progress(t))) always keeps a commit at t. Progress is
// clamped to [0,100]; 0 gives the earliest commit time and 100 the latest,
// exactly.
func (c Cursor) Cutoff(progress float64) time.Time {
	p := ClampProgress(progress)
	min, max := c.Domain()
	switch {
	case p <= MinProgress:
		return min
	case p >= MaxProgress || !max.After(min):
		return max
	}

	t := c.scale.Invert(p)
	if t.Before(min) {
		t = min
	}
	if t.After(max) {
		t = max
	}

	// Invert rounds, and Map has plateaus a few nanoseconds wide. Bracket
	// the last instant with Map <= p, then bisect.
	lo := t
	for step := time.Nanosecond; c.scale.Map(lo) > p && lo.After(min); step *= 2 {
		lo = lo.Add(-step)
		if lo.Before(min) {
			lo = min
		}
	}
	hi := lo
	for step := time.Nanosecond; c.scale.Map(hi) <= p && hi.Before(max); step *= 2 {
		lo = hi
		hi = hi.Add(step)
		if hi.After(max) {
			hi = max
		}
	}
	if c.scale.Map(hi) <= p {
		return hi
	}
	for hi.Sub(lo) > time.Nanosecond {
		mid := lo.Add(hi.Sub(lo) / 2)
		if c.scale.Map(mid) <= p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// Progress maps an instant back to a progress value, clamped to [0,100].
func (c Cursor) Progress(t time.Time) float64 {
	return ClampProgress(c.scale.Map(t))
}

// Domain returns the earliest and latest commit times.
func (c Cursor) Domain() (time.Time, time.Time) {
	return c.scale.Domain[0], c.scale.Domain[1]
}

// ClampProgress limits p to [0,100]. NaN becomes 100.
func ClampProgress(p float64) float64 {
	switch {
	case p != p:
		return MaxProgress
	case p < MinProgress:
		return MinProgress
	case p > MaxProgress:
		return MaxProgress
	}
	return p
}

// FilterByProgress is Filter at the cutoff for progress. No commits gives
// no commits.
func FilterByProgress(all []*model.Commit, progress float64) []*model.Commit {
	cur, err := NewCursor(all)
	if err != nil {
		return nil
	}
	return Filter(all, cur.Cutoff(progress))
}
