package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Frank-Junran-Yang/portfolio/internal/database"
	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
)

// Import phases reported to progress callbacks.
const (
	phaseReading   = "reading"
	phaseInserting = "inserting"
	phaseMetadata  = "metadata"
	phaseDone      = "done"
)

// progressFunc receives import progress. total is 0 while it is unknown.
type progressFunc func(phase string, count, total int)

func importCmd() *cobra.Command {
	v := viper.New()
	var (
		appendTo bool
		indexes  []string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a loc CSV or JSON Lines file into a record store",
		Long: `Import reads a loc dataset and writes its records to the store named by
store.driver and store.dsn (or --db). Records keep their file order, and
appended imports continue after the records already stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			dsn := cfg.Store.DSN
			if dsn == "" {
				dsn = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".db"
			}

			store, err := openImportStore(cfg.Store.Driver, dsn, appendTo, indexes)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := locparser.Options{Policy: locparser.Policy(cfg.Data.TimestampPolicy)}
			n, res, err := importRecords(store, args[0], cfg.Data.Format, opts, func(phase string, count, total int) {
				if phase == phaseDone {
					return
				}
				logger.Info(phase, "count", humanize.Comma(int64(count)), "total", humanize.Comma(int64(total)))
			})
			if err != nil {
				return err
			}

			logger.Info("import complete", "records", humanize.Comma(int64(n)), "store", store.Path())
			if res.Mismatches > 0 {
				logger.Warn("datetime disagrees with date/time/timezone", "rows", res.Mismatches, "first", res.MismatchRows)
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "store DSN or SQLite path (overrides store.dsn)")
	cmd.Flags().String("driver", "", "store driver: sqlite or postgres (overrides store.driver)")
	cmd.Flags().String("policy", "", "timestamp policy: prefer-datetime, prefer-reconstructed or strict")
	cmd.Flags().String("format", "", "input format: auto, csv or jsonl")
	cmd.Flags().BoolVar(&appendTo, "append", false, "append to an existing store")
	cmd.Flags().StringSliceVar(&indexes, "index", nil, "columns to index (default commit_id,ts_unix,type,author)")
	_ = v.BindPFlag("store.dsn", cmd.Flags().Lookup("db"))
	_ = v.BindPFlag("store.driver", cmd.Flags().Lookup("driver"))
	_ = v.BindPFlag("data.timestamp_policy", cmd.Flags().Lookup("policy"))
	_ = v.BindPFlag("data.format", cmd.Flags().Lookup("format"))

	return cmd
}

// openImportStore creates a fresh store, or opens an existing one when
// appending. A SQLite file is never silently appended to.
func openImportStore(driver, dsn string, appendTo bool, indexes []string) (database.Store, error) {
	if appendTo {
		return database.OpenStore(driver, dsn)
	}
	if driver == "sqlite" {
		if _, err := os.Stat(dsn); err == nil {
			return nil, fmt.Errorf("%s already exists; use --append to add to it", dsn)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return database.CreateStore(driver, dsn, indexes)
}

// importRecords reads path and inserts its records into store, then records
// where they came from in the store's metadata.
func importRecords(store database.Store, path, format string, opts locparser.Options, progress progressFunc) (int, *locparser.ReadResult, error) {
	if progress == nil {
		progress = func(string, int, int) {}
	}

	isJSONL := format == "jsonl" || (format != "csv" && isJSONLPath(path))
	if !isJSONL {
		if err := locparser.ValidateHeader(path); err != nil {
			return 0, nil, fmt.Errorf("invalid loc CSV: %w", err)
		}
	}

	progress(phaseReading, 0, 0)
	onRead := func(count int) { progress(phaseReading, count, 0) }
	var (
		res *locparser.ReadResult
		err error
	)
	if isJSONL {
		res, err = locparser.ReadJSONL(path, opts, onRead)
	} else {
		res, err = locparser.ReadRecords(path, opts, onRead)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	total := len(res.Records)
	progress(phaseInserting, 0, total)
	n, err := store.InsertRecords(res.Records, func(count int) {
		progress(phaseInserting, count, total)
	})
	if err != nil {
		return 0, nil, fmt.Errorf("inserting records: %w", err)
	}

	progress(phaseMetadata, 0, 0)
	policy, _ := locparser.ParsePolicy(string(opts.Policy))
	meta := [][2]string{
		{"source", path},
		{"timestamp_policy", string(policy)},
		{"imported_at", time.Now().UTC().Format(time.RFC3339)},
		{"mismatches", strconv.Itoa(res.Mismatches)},
	}
	for _, kv := range meta {
		if err := store.SetMeta(kv[0], kv[1]); err != nil {
			return 0, nil, fmt.Errorf("updating metadata: %w", err)
		}
	}

	progress(phaseDone, n, total)
	return n, res, nil
}

func isJSONLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}
