// Package commits groups line records into commits.
package commits

import (
	"strings"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// Options controls aggregation.
type Options struct {
	// RepoURL, when set, is used to build each commit's URL as
	// RepoURL + "/commit/" + id.
	RepoURL string
}

// Aggregate groups records by commit id. Commits come out in the order their
// first record appears, and take author and timestamp from that record.
// Records are shared with the input, not copied.
func Aggregate(records []*model.LineRecord, opts Options) []*model.Commit {
	index := make(map[string]*model.Commit)
	var out []*model.Commit

	base := strings.TrimRight(opts.RepoURL, "/")

	for _, r := range records {
		c, ok := index[r.Commit]
		if !ok {
			c = &model.Commit{
				ID:           r.Commit,
				Author:       r.Author,
				Timestamp:    r.Timestamp,
				HourFraction: HourFraction(r.Timestamp),
			}
			if base != "" {
				c.URL = base + "/commit/" + r.Commit
			}
			index[r.Commit] = c
			out = append(out, c)
		}
		c.Lines = append(c.Lines, r)
	}

	for _, c := range out {
		c.TotalLines = len(c.Lines)
	}
	return out
}

// HourFraction reduces t to its time of day, in hours, on t's own wall clock.
// The result is always in [0, 24).
func HourFraction(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// Extent returns the earliest and latest commit timestamps.
// ok is false when commits is empty.
func Extent(commits []*model.Commit) (min, max time.Time, ok bool) {
	for i, c := range commits {
		if i == 0 || c.Timestamp.Before(min) {
			min = c.Timestamp
		}
		if i == 0 || c.Timestamp.After(max) {
			max = c.Timestamp
		}
	}
	return min, max, len(commits) > 0
}

// ByID returns the commit with the given id, or nil.
func ByID(commits []*model.Commit, id string) *model.Commit {
	for _, c := range commits {
		if c.ID == id {
			return c
		}
	}
	return nil
}
