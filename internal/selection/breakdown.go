package selection

import (
	"fmt"

	"github.com/Frank-Junran-Yang/portfolio/internal/filetype"
	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// Entry is one type's share of a breakdown.
type Entry struct {
	Type     string  `json:"type"`
	Language string  `json:"language"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// Format renders the entry as "<n> lines (<p>%)" with one decimal.
func (e Entry) Format() string {
	return fmt.Sprintf("%d lines (%.1f%%)", e.Count, e.Percent)
}

// Breakdown counts lines per type in order of first appearance.
type Breakdown struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// BreakdownOf flattens the lines of commits and groups them by type.
// Percentages are of the breakdown's own total.
func BreakdownOf(commits []*model.Commit) Breakdown {
	index := make(map[string]int)
	b := Breakdown{Entries: []Entry{}}

	for _, c := range commits {
		for _, l := range c.Lines {
			i, ok := index[l.Type]
			if !ok {
				i = len(b.Entries)
				index[l.Type] = i
				b.Entries = append(b.Entries, Entry{Type: l.Type, Language: filetype.Language(l.Type)})
			}
			b.Entries[i].Count++
			b.Total++
		}
	}

	for i := range b.Entries {
		b.Entries[i].Percent = float64(b.Entries[i].Count) / float64(b.Total) * 100
	}
	return b
}

// Empty reports whether the breakdown has no lines.
func (b Breakdown) Empty() bool {
	return b.Total == 0
}

// Map returns type -> count.
func (b Breakdown) Map() map[string]int {
	m := make(map[string]int, len(b.Entries))
	for _, e := range b.Entries {
		m[e.Type] = e.Count
	}
	return m
}

// Format renders each entry in order as "<type>: <n> lines (<p>%)".
func (b Breakdown) Format() []string {
	out := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Type + ": " + e.Format()
	}
	return out
}
