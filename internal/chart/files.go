package chart

import (
	"sort"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// FileStat is one file's share of the lines in a set of commits.
type FileStat struct {
	Name string `json:"name"`
	// Type is the most common type among the file's lines.
	Type  string `json:"type"`
	Lines int    `json:"lines"`
}

// Files groups the lines of commits by file, sorted by line count
// descending. Ties keep first-appearance order.
func Files(commits []*model.Commit) []FileStat {
	index := make(map[string]int)
	typeCounts := make([]map[string]int, 0)
	var stats []FileStat

	for _, c := range commits {
		for _, l := range c.Lines {
			i, ok := index[l.File]
			if !ok {
				i = len(stats)
				index[l.File] = i
				stats = append(stats, FileStat{Name: l.File})
				typeCounts = append(typeCounts, map[string]int{})
			}
			stats[i].Lines++
			typeCounts[i][l.Type]++
			if n := typeCounts[i][l.Type]; n > typeCounts[i][stats[i].Type] || stats[i].Type == "" {
				stats[i].Type = l.Type
			}
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Lines > stats[j].Lines
	})
	return stats
}
