package timeline

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// Step is one scrollytelling paragraph: a commit told in chronological order.
type Step struct {
	Index     int       `json:"index"`
	CommitID  string    `json:"commitId"`
	URL       string    `json:"url,omitempty"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	// Date is the full date on the commit's own wall clock, e.g.
	// "Monday, February 10, 2025".
	Date  string `json:"date"`
	Lines int    `json:"lines"`
	Files int    `json:"files"`
	// Summary reads like "On Monday, February 10, 2025, I made a glorious
	// commit. I edited 3 lines across 2 files."
	Summary string `json:"summary"`
}

const fullDate = "Monday, January 2, 2006"

// Steps returns one step per commit, ordered by timestamp. Ties keep their
// aggregation order.
func Steps(all []*model.Commit) []Step {
	sorted := chronological(all)
	steps := make([]Step, len(sorted))
	for i, c := range sorted {
		files := len(c.Files())
		date := c.Timestamp.Format(fullDate)

		verb := "another glorious commit"
		if i == 0 {
			verb = "my first commit, and it was glorious"
		}

		steps[i] = Step{
			Index:     i,
			CommitID:  c.ID,
			URL:       c.URL,
			Author:    c.Author,
			Timestamp: c.Timestamp,
			Date:      date,
			Lines:     c.TotalLines,
			Files:     files,
			Summary: "On " + date + ", I made " + verb + ". I edited " +
				humanize.Comma(int64(c.TotalLines)) + " " + plural(c.TotalLines, "line") +
				" across " + humanize.Comma(int64(files)) + " " + plural(files, "file") + ".",
		}
	}
	return steps
}

// CutoffAtStep returns the cutoff for a step-enter event: the timestamp of
// the commit at index in chronological order. index is clamped to the
// valid range. ok is false when there are no commits.
func CutoffAtStep(all []*model.Commit, index int) (cutoff time.Time, ok bool) {
	if len(all) == 0 {
		return time.Time{}, false
	}
	sorted := chronological(all)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index].Timestamp, true
}

func chronological(all []*model.Commit) []*model.Commit {
	sorted := make([]*model.Commit, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
