// Package selection tests commits against a brushed rectangle and builds
// the per-type line breakdown of a selection.
package selection

import (
	"fmt"
	"math"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// Rect is a selection rectangle in screen coordinates. Corners may be given
// in any order. A nil *Rect means no selection is active.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Normalize returns the rectangle with X0 <= X1 and Y0 <= Y1.
func (r Rect) Normalize() Rect {
	return Rect{
		X0: math.Min(r.X0, r.X1),
		Y0: math.Min(r.Y0, r.Y1),
		X1: math.Max(r.X0, r.X1),
		Y1: math.Max(r.Y0, r.Y1),
	}
}

// Contains reports whether (x, y) lies inside r, bounds included.
func (r Rect) Contains(x, y float64) bool {
	n := r.Normalize()
	return n.X0 <= x && x <= n.X1 && n.Y0 <= y && y <= n.Y1
}

// Everything covers the whole plane.
var Everything = Rect{X0: math.Inf(-1), Y0: math.Inf(-1), X1: math.Inf(1), Y1: math.Inf(1)}

// Projector maps a commit's time and hour fraction to screen coordinates.
type Projector interface {
	X(t time.Time) float64
	Y(hourFraction float64) float64
}

// Projection adapts a pair of functions to Projector.
type Projection struct {
	XFunc func(time.Time) float64
	YFunc func(float64) float64
}

func (p Projection) X(t time.Time) float64 { return p.XFunc(t) }
func (p Projection) Y(h float64) float64   { return p.YFunc(h) }

// IsSelected reports whether c's projected point lies inside rect.
// A nil rect selects nothing.
func IsSelected(rect *Rect, c *model.Commit, proj Projector) bool {
	if rect == nil {
		return false
	}
	return rect.Contains(proj.X(c.Timestamp), proj.Y(c.HourFraction))
}

// Result is the outcome of a selection over the visible commits.
type Result struct {
	// Selected is empty when no rectangle is active.
	Selected []*model.Commit `json:"selected"`
	Count    int             `json:"count"`
	// Breakdown covers Selected when a rectangle is active and every
	// visible commit when it is not.
	Breakdown Breakdown `json:"breakdown"`
}

// Label renders the selection count the way the page shows it.
func (r Result) Label() string {
	if r.Count == 0 {
		return "No commits selected"
	}
	return fmt.Sprintf("%d commits selected", r.Count)
}

// Select applies rect to the visible commits.
func Select(rect *Rect, visible []*model.Commit, proj Projector) Result {
	if rect == nil {
		return Result{
			Selected:  []*model.Commit{},
			Breakdown: BreakdownOf(visible),
		}
	}

	selected := make([]*model.Commit, 0)
	for _, c := range visible {
		if IsSelected(rect, c, proj) {
			selected = append(selected, c)
		}
	}
	return Result{
		Selected:  selected,
		Count:     len(selected),
		Breakdown: BreakdownOf(selected),
	}
}
