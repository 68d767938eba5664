package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Frank-Junran-Yang/portfolio/internal/chart"
	"github.com/Frank-Junran-Yang/portfolio/internal/commits"
	"github.com/Frank-Junran-Yang/portfolio/internal/database"
	"github.com/Frank-Junran-Yang/portfolio/internal/dataset"
	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
	"github.com/Frank-Junran-Yang/portfolio/internal/model"
	"github.com/Frank-Junran-Yang/portfolio/internal/query"
	"github.com/Frank-Junran-Yang/portfolio/internal/render"
	"github.com/Frank-Junran-Yang/portfolio/internal/selection"
	"github.com/Frank-Junran-Yang/portfolio/internal/timeline"
)

// topFiles caps the file table.
const topFiles = 10

func statsCmd() *cobra.Command {
	v := viper.New()
	var (
		where    string
		htmlPath string
		progress float64
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise a dataset in the terminal or as an HTML report",
		Long: `Stats prints the numbers the meta page shows: commit and line counts,
the per-type breakdown and the most edited files. With --html it also
writes the scatterplot as a standalone page.

--where takes a raw SQL condition on line_records and needs a store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(v)
			if err != nil {
				return err
			}

			var (
				src   dataset.Source
				store database.Store
			)
			if cfg.UseStore() {
				store, err = database.OpenStore(cfg.Store.Driver, cfg.Store.DSN)
				if err != nil {
					return err
				}
				defer store.Close()
				src = dataset.StoreSource{Store: store}
				if where != "" {
					src = rawSource{store: store, where: where}
				}
			} else {
				if where != "" {
					return fmt.Errorf("--where needs a record store (set store.dsn or --db)")
				}
				src = dataset.FileSource{
					Path:    cfg.Data.Path,
					Format:  cfg.Data.Format,
					Options: locparser.Options{Policy: locparser.Policy(cfg.Data.TimestampPolicy)},
				}
			}

			snap, err := dataset.Load(cmd.Context(), src, dataset.Options{RepoURL: cfg.Data.RepoURL})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			visible := timeline.FilterByProgress(snap.Commits, progress)
			printSummary(out, snap, visible)
			if store != nil {
				if err := printStore(out, store); err != nil {
					return err
				}
			}
			printBreakdown(out, selection.BreakdownOf(visible))
			printFiles(out, chart.Files(visible))

			if htmlPath != "" {
				return writeReport(htmlPath, snap, progress)
			}
			return nil
		},
	}

	cmd.Flags().String("data", "", "loc dataset path (overrides data.path)")
	cmd.Flags().String("db", "", "record store DSN or SQLite path (overrides store.dsn)")
	cmd.Flags().StringVar(&where, "where", "", "raw SQL condition on line_records")
	cmd.Flags().StringVar(&htmlPath, "html", "", "write the scatterplot to this HTML file")
	cmd.Flags().Float64Var(&progress, "progress", timeline.MaxProgress, "time cursor position, 0-100")
	_ = v.BindPFlag("data.path", cmd.Flags().Lookup("data"))
	_ = v.BindPFlag("store.dsn", cmd.Flags().Lookup("db"))

	return cmd
}

// rawSource reads the store records matching a hand-written condition.
type rawSource struct {
	store database.Store
	where string
}

func (s rawSource) Name() string { return s.store.Path() + " where " + s.where }

func (s rawSource) Read(ctx context.Context) (*locparser.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sqlStr, args := query.NewRaw(0, s.where).Build()
	records, err := s.store.ExecuteQuery(sqlStr, args)
	if err != nil {
		return nil, fmt.Errorf("running --where: %w", err)
	}
	if len(records) == 0 {
		return nil, &locparser.EmptyDatasetError{Source: s.Name()}
	}
	return &locparser.ReadResult{Records: records, Count: len(records)}, nil
}

func newTable(out io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func printSummary(out io.Writer, snap *dataset.Snapshot, visible []*model.Commit) {
	tbl := newTable(out)
	tbl.SetTitle("Summary")

	authors := make(map[string]bool)
	lines := 0
	for _, c := range visible {
		authors[c.Author] = true
		lines += c.TotalLines
	}

	tbl.AppendRow(table.Row{"Source", snap.Source})
	tbl.AppendRow(table.Row{"Commits", fmt.Sprintf("%s of %s", humanize.Comma(int64(len(visible))), humanize.Comma(int64(len(snap.Commits))))})
	tbl.AppendRow(table.Row{"Lines", humanize.Comma(int64(lines))})
	tbl.AppendRow(table.Row{"Authors", len(authors)})
	if min, max, ok := commits.Extent(visible); ok {
		tbl.AppendRow(table.Row{"First commit", fmt.Sprintf("%s (%s)", min.Format("2006-01-02 15:04 -07:00"), humanize.Time(min))})
		tbl.AppendRow(table.Row{"Last commit", fmt.Sprintf("%s (%s)", max.Format("2006-01-02 15:04 -07:00"), humanize.Time(max))})
	}
	if r := snap.Result; r != nil && r.Mismatches > 0 {
		tbl.AppendRow(table.Row{"Timestamp mismatches", r.Mismatches})
	}
	tbl.Render()
}

func printStore(out io.Writer, store database.Store) error {
	tbl := newTable(out)
	tbl.SetTitle("Store")

	min, max, err := store.GetMinMaxTimestamp()
	if err != nil {
		return err
	}
	tbl.AppendRow(table.Row{"Path", store.Path()})
	tbl.AppendRow(table.Row{"Range", min.UTC().Format("2006-01-02") + " to " + max.UTC().Format("2006-01-02")})
	for _, key := range []string{"source", "timestamp_policy", "imported_at"} {
		v, err := store.GetMeta(key)
		if err != nil {
			return err
		}
		if v != "" {
			tbl.AppendRow(table.Row{key, v})
		}
	}

	authors, err := store.GetDistinctValues("author")
	if err != nil {
		return err
	}
	for _, name := range sortedByCount(authors) {
		tbl.AppendRow(table.Row{"author " + name, humanize.Comma(authors[name]) + " lines"})
	}
	tbl.Render()
	return nil
}

func sortedByCount(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func printBreakdown(out io.Writer, b selection.Breakdown) {
	tbl := newTable(out)
	tbl.SetTitle("Lines by type")
	tbl.AppendHeader(table.Row{"Type", "Language", "Lines", "Share"})
	for _, e := range b.Entries {
		tbl.AppendRow(table.Row{e.Type, e.Language, humanize.Comma(int64(e.Count)), fmt.Sprintf("%.1f%%", e.Percent)})
	}
	tbl.AppendFooter(table.Row{"", "Total", humanize.Comma(int64(b.Total)), ""})
	tbl.Render()
}

func printFiles(out io.Writer, files []chart.FileStat) {
	tbl := newTable(out)
	tbl.SetTitle("Most edited files")
	tbl.AppendHeader(table.Row{"File", "Type", "Lines"})
	for i, f := range files {
		if i == topFiles {
			tbl.AppendRow(table.Row{fmt.Sprintf("... %d more", len(files)-topFiles), "", ""})
			break
		}
		tbl.AppendRow(table.Row{f.Name, f.Type, humanize.Comma(int64(f.Lines))})
	}
	tbl.Render()
}

func writeReport(path string, snap *dataset.Snapshot, progress float64) error {
	st := chart.NewState(snap.Commits, chart.Area{})
	st.SetProgress(progress)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()
	return render.Page(render.Scatter(st), f)
}
