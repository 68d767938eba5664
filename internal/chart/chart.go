// Package chart holds the commit scatterplot state: the commit set, the
// visible subset, the coordinate scales and the brush. The state is owned by
// whoever renders it and passed explicitly to the filter and selector.
package chart

import (
	"sort"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/commits"
	"github.com/Frank-Junran-Yang/portfolio/internal/model"
	"github.com/Frank-Junran-Yang/portfolio/internal/scale"
	"github.com/Frank-Junran-Yang/portfolio/internal/selection"
	"github.com/Frank-Junran-Yang/portfolio/internal/timeline"
)

// Radius bounds for commit dots.
const (
	MinRadius = 2.0
	MaxRadius = 30.0
)

// Margin is the space around the plotted area.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Area is the chart's view box.
type Area struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// DefaultArea is a 1000x600 view box with room for the axes.
var DefaultArea = Area{
	Width:  1000,
	Height: 600,
	Margin: Margin{Top: 10, Right: 10, Bottom: 30, Left: 40},
}

func (a Area) left() float64   { return a.Margin.Left }
func (a Area) right() float64  { return a.Width - a.Margin.Right }
func (a Area) top() float64    { return a.Margin.Top }
func (a Area) bottom() float64 { return a.Height - a.Margin.Bottom }

// State is the scatterplot's full interactive state. Every setter
// recomputes derived fields synchronously.
type State struct {
	All      []*model.Commit
	Visible  []*model.Commit
	XScale   scale.Time
	YScale   scale.Linear
	RScale   scale.Sqrt
	Progress float64
	Cutoff   time.Time
	Brush    *selection.Rect
	Area     Area

	cursor    timeline.Cursor
	hasCursor bool
}

// NewState builds a state showing every commit. A zero area means DefaultArea.
func NewState(all []*model.Commit, area Area) *State {
	if area.Width == 0 || area.Height == 0 {
		area = DefaultArea
	}
	s := &State{
		All:  all,
		Area: area,
		YScale: scale.Linear{
			Domain: [2]float64{0, 24},
			Range:  [2]float64{area.bottom(), area.top()},
		},
		RScale: radiusScale(all),
	}
	if cur, err := timeline.NewCursor(all); err == nil {
		s.cursor, s.hasCursor = cur, true
	}
	s.SetProgress(timeline.MaxProgress)
	return s
}

func radiusScale(all []*model.Commit) scale.Sqrt {
	lo, hi := 0, 0
	for i, c := range all {
		if i == 0 || c.TotalLines < lo {
			lo = c.TotalLines
		}
		if i == 0 || c.TotalLines > hi {
			hi = c.TotalLines
		}
	}
	return scale.Sqrt{
		Domain: [2]float64{float64(lo), float64(hi)},
		Range:  [2]float64{MinRadius, MaxRadius},
	}
}

// SetProgress moves the time cursor, then recomputes the visible commits
// and the x domain over them.
func (s *State) SetProgress(p float64) {
	s.Progress = timeline.ClampProgress(p)
	if !s.hasCursor {
		s.Visible = []*model.Commit{}
		s.Cutoff = time.Time{}
		s.XScale = scale.Time{Range: [2]float64{s.Area.left(), s.Area.right()}}
		return
	}

	s.Cutoff = s.cursor.Cutoff(s.Progress)
	s.Visible = timeline.Filter(s.All, s.Cutoff)

	min, max, _ := commits.Extent(s.Visible)
	s.XScale = scale.Time{
		Domain: [2]time.Time{min, max},
		Range:  [2]float64{s.Area.left(), s.Area.right()},
	}.Nice()
}

// SetBrush sets or, with nil, clears the selection rectangle.
func (s *State) SetBrush(r *selection.Rect) {
	if r == nil {
		s.Brush = nil
		return
	}
	n := r.Normalize()
	s.Brush = &n
}

// X projects a timestamp onto the horizontal axis.
func (s *State) X(t time.Time) float64 { return s.XScale.Map(t) }

// Y projects an hour fraction onto the vertical axis.
func (s *State) Y(h float64) float64 { return s.YScale.Map(h) }

// Radius returns the dot radius for a commit.
func (s *State) Radius(c *model.Commit) float64 { return s.RScale.Map(float64(c.TotalLines)) }

// Selection applies the brush to the visible commits.
func (s *State) Selection() selection.Result {
	return selection.Select(s.Brush, s.Visible, s)
}

// Point is a commit projected onto the chart.
type Point struct {
	Commit   *model.Commit `json:"commit"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	R        float64       `json:"r"`
	Selected bool          `json:"selected"`
}

// Points projects the visible commits, largest first so that small dots
// are drawn on top.
func (s *State) Points() []Point {
	pts := make([]Point, len(s.Visible))
	for i, c := range s.Visible {
		pts[i] = Point{
			Commit:   c,
			X:        s.X(c.Timestamp),
			Y:        s.Y(c.HourFraction),
			R:        s.Radius(c),
			Selected: selection.IsSelected(s.Brush, c, s),
		}
	}
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].Commit.TotalLines > pts[j].Commit.TotalLines
	})
	return pts
}
