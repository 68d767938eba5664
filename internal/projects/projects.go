// Package projects filters the project list and summarises it by year for
// the pie chart legend.
package projects

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Project is one card on the projects page.
type Project struct {
	Title       string `json:"title"`
	Year        string `json:"year"`
	Image       string `json:"image"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// UnmarshalJSON accepts the year as a JSON number or string.
func (p *Project) UnmarshalJSON(b []byte) error {
	type alias Project
	var raw struct {
		alias
		Year json.RawMessage `json:"year"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Project(raw.alias)
	p.Year = ""
	if len(raw.Year) > 0 && string(raw.Year) != "null" {
		var s string
		if err := json.Unmarshal(raw.Year, &s); err == nil {
			p.Year = s
		} else {
			p.Year = strings.Trim(string(raw.Year), " ")
		}
	}
	return nil
}

// Load reads a projects.json file: a JSON array of projects, newest first.
func Load(path string) ([]Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading projects: %w", err)
	}
	var ps []Project
	if err := json.Unmarshal(b, &ps); err != nil {
		return nil, fmt.Errorf("parsing projects: %w", err)
	}
	return ps, nil
}

// Search keeps projects where any field contains query, ignoring case.
// A blank query keeps everything.
func Search(ps []Project, query string) []Project {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ps
	}
	out := make([]Project, 0, len(ps))
	for _, p := range ps {
		text := strings.Join([]string{p.Title, p.Year, p.Image, p.Description, p.URL}, "\n")
		if strings.Contains(strings.ToLower(text), q) {
			out = append(out, p)
		}
	}
	return out
}

// ByYear keeps projects from year. An empty year keeps everything.
func ByYear(ps []Project, year string) []Project {
	if year == "" {
		return ps
	}
	out := make([]Project, 0, len(ps))
	for _, p := range ps {
		if p.Year == year {
			out = append(out, p)
		}
	}
	return out
}

// Latest returns the first n projects. The file lists newest first.
func Latest(ps []Project, n int) []Project {
	if n < 0 {
		n = 0
	}
	if n > len(ps) {
		n = len(ps)
	}
	return ps[:n]
}

// Slice is one pie wedge.
type Slice struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// PieData counts projects per year, sorted by year ascending.
func PieData(ps []Project) []Slice {
	counts := make(map[string]int)
	for _, p := range ps {
		counts[p.Year]++
	}
	out := make([]Slice, 0, len(counts))
	for year, n := range counts {
		out = append(out, Slice{Label: year, Value: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return yearLess(out[i].Label, out[j].Label)
	})
	return out
}

// yearLess orders numerically when both labels are numbers.
func yearLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

// ToggleYear returns the new selection after clicking a wedge: clicking the
// selected year clears it.
func ToggleYear(selected, clicked string) string {
	if selected == clicked {
		return ""
	}
	return clicked
}

// View is everything the projects page draws for one query/year state.
type View struct {
	Projects []Project `json:"projects"`
	Slices   []Slice   `json:"slices"`
	Selected string    `json:"selected,omitempty"`
	Title    string    `json:"title"`
}

// NewView filters by query, then by year, and summarises the result.
func NewView(ps []Project, query, year string) View {
	shown := ByYear(Search(ps, query), year)
	return View{
		Projects: shown,
		Slices:   PieData(shown),
		Selected: year,
		Title:    Title(len(shown)),
	}
}

// Title renders a heading like "3 Projects" or "1 Project".
func Title(n int) string {
	if n == 1 {
		return "1 Project"
	}
	return fmt.Sprintf("%d Projects", n)
}
