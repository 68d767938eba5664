package model

import "time"

// Commit aggregates every LineRecord that shares a commit id.
//
// Lines is kept for drill-down but is left out of JSON output; the
// per-commit line list can be large and callers ask for it explicitly.
type Commit struct {
	ID           string        `json:"id"`
	URL          string        `json:"url,omitempty"`
	Author       string        `json:"author"`
	Timestamp    time.Time     `json:"timestamp"`
	HourFraction float64       `json:"hourFraction"`
	TotalLines   int           `json:"totalLines"`
	Lines        []*LineRecord `json:"-"`
}

// Files returns the distinct file names touched by the commit, in line order.
func (c *Commit) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, l := range c.Lines {
		if !seen[l.File] {
			seen[l.File] = true
			files = append(files, l.File)
		}
	}
	return files
}
