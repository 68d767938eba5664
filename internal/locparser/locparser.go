// Package locparser reads line-of-code change datasets (loc.csv and its JSON
// Lines variant) into model.LineRecord values.
package locparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Frank-Junran-Yang/portfolio/internal/filetype"
	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// maxMismatchRows caps ReadResult.MismatchRows; Mismatches keeps counting past it.
const maxMismatchRows = 50

// Header names and their aliases, mapped to the canonical column name.
var fieldAliases = map[string]string{
	"commit":    "commit",
	"commit_id": "commit",
	"sha":       "commit",
	"file":      "file",
	"filename":  "file",
	"path":      "file",
	"type":      "type",
	"line":      "line",
	"depth":     "depth",
	"length":    "length",
	"author":    "author",
	"date":      "date",
	"time":      "time",
	"timezone":  "timezone",
	"tz":        "timezone",
	"zone":      "timezone",
	"datetime":  "datetime",
}

// Options controls a single load.
type Options struct {
	// Policy reconciles the datetime column with date/time/timezone.
	// The zero value means PreferDatetime.
	Policy Policy
	// Limit stops reading after this many records. 0 means no limit.
	Limit int
	// Source names the input in EmptyDatasetError. Defaults to the file path.
	Source string
}

// ReadResult contains the outcome of a load.
type ReadResult struct {
	Records []*model.LineRecord
	Count   int
	// Mismatches counts rows whose datetime and date/time/timezone parsed
	// to different instants.
	Mismatches int
	// MismatchRows lists the first mismatching row numbers.
	MismatchRows []int
}

func (r *ReadResult) flag(row int) {
	r.Mismatches++
	if len(r.MismatchRows) < maxMismatchRows {
		r.MismatchRows = append(r.MismatchRows, row)
	}
}

// columnMap maps canonical column names to indexes in the header row.
type columnMap map[string]int

func (m columnMap) get(row []string, name string) string {
	i, ok := m[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(safeIndex(row, i))
}

// buildColumnMap matches header names case-insensitively. The first column
// carrying a given canonical name wins.
func buildColumnMap(header []string) columnMap {
	m := make(columnMap)
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		name, ok := fieldAliases[col]
		if !ok {
			continue
		}
		if _, dup := m[name]; !dup {
			m[name] = i
		}
	}
	return m
}

// checkColumns reports a header that lacks a mandatory column.
func checkColumns(m columnMap) error {
	if _, ok := m["commit"]; !ok {
		return &MalformedRecordError{Field: "commit", Err: fmt.Errorf("missing mandatory column %q", "commit")}
	}
	_, hasDate := m["date"]
	_, hasDatetime := m["datetime"]
	if !hasDate && !hasDatetime {
		return &MalformedRecordError{Field: "date", Err: fmt.Errorf("missing both %q and %q columns", "date", "datetime")}
	}
	return nil
}

// ValidateHeader checks that a CSV file has a usable loc header.
func ValidateHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(newNullStripper(f))
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	return checkColumns(buildColumnMap(header))
}

// ReadFile loads path as CSV or JSON Lines depending on its extension.
func ReadFile(path string, opts Options, onProgress func(count int)) (*ReadResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return ReadJSONL(path, opts, onProgress)
	default:
		return ReadRecords(path, opts, onProgress)
	}
}

// ReadRecords reads all records from a loc CSV file.
// An onProgress callback is called every 10,000 records if non-nil.
func ReadRecords(path string, opts Options, onProgress func(count int)) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if opts.Source == "" {
		opts.Source = path
	}
	return ParseRecords(f, opts, onProgress)
}

// ParseRecords reads loc CSV data from r. Columns may appear in any order.
func ParseRecords(r io.Reader, opts Options, onProgress func(count int)) (*ReadResult, error) {
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(newNullStripper(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable field counts

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &EmptyDatasetError{Source: opts.Source}
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := buildColumnMap(header)
	if err := checkColumns(cols); err != nil {
		return nil, err
	}

	result := &ReadResult{}
	rowNum := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", rowNum, err)
		}
		if isBlank(row) {
			continue
		}

		if opts.Limit > 0 && result.Count >= opts.Limit {
			break
		}

		fields := make(map[string]string, len(cols))
		for name := range cols {
			fields[name] = cols.get(row, name)
		}

		rec, mismatch, err := buildRecord(rowNum, fields, policy)
		if err != nil {
			return nil, err
		}
		if mismatch {
			result.flag(rowNum)
		}

		rec.Seq = int64(result.Count)
		result.Records = append(result.Records, rec)
		result.Count++

		if onProgress != nil && result.Count%10000 == 0 {
			onProgress(result.Count)
		}
	}

	if result.Count == 0 {
		return nil, &EmptyDatasetError{Source: opts.Source}
	}
	return result, nil
}

// buildRecord turns one row's canonical fields into a record.
func buildRecord(row int, fields map[string]string, policy Policy) (*model.LineRecord, bool, error) {
	rec := &model.LineRecord{
		Commit:   fields["commit"],
		File:     fields["file"],
		Type:     fields["type"],
		Author:   fields["author"],
		Date:     fields["date"],
		Time:     fields["time"],
		Timezone: fields["timezone"],
		Datetime: fields["datetime"],
	}
	if rec.Commit == "" {
		return nil, false, &MalformedRecordError{Row: row, Field: "commit", Err: fmt.Errorf("empty commit id")}
	}
	if rec.Type == "" && rec.File != "" {
		rec.Type = filetype.FromFile(rec.File)
	}

	var err error
	if rec.Line, err = parseCount(row, "line", fields["line"]); err != nil {
		return nil, false, err
	}
	if rec.Depth, err = parseCount(row, "depth", fields["depth"]); err != nil {
		return nil, false, err
	}
	if rec.Length, err = parseCount(row, "length", fields["length"]); err != nil {
		return nil, false, err
	}

	ts, src, mismatch, err := resolveTimestamp(row, rec, policy)
	if err != nil {
		return nil, false, err
	}
	rec.Timestamp = ts
	rec.TimestampSource = src
	return rec, mismatch, nil
}

// parseCount parses a non-negative integer column. Empty means 0.
func parseCount(row int, field, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &MalformedRecordError{Row: row, Field: field, Value: value, Err: err}
	}
	if n < 0 {
		return 0, &MalformedRecordError{Row: row, Field: field, Value: value, Err: fmt.Errorf("negative value")}
	}
	return n, nil
}

// WriteRecords writes records to a CSV file using the loc column layout.
func WriteRecords(path string, records []*model.LineRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	if err := writer.Write(model.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.File,
			strconv.Itoa(r.Line),
			r.Type,
			r.Commit,
			r.Author,
			r.Date,
			r.Time,
			r.Timezone,
			r.Datetime,
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.Length),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	return nil
}

// safeIndex returns the value at index i, or empty string if out of bounds.
func safeIndex(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// nullStripper wraps a reader and strips null bytes from the stream.
type nullStripper struct {
	r io.Reader
}

func newNullStripper(r io.Reader) io.Reader {
	return &nullStripper{r: r}
}

func (ns *nullStripper) Read(p []byte) (int, error) {
	n, err := ns.r.Read(p)
	if n > 0 {
		cleaned := strings.ReplaceAll(string(p[:n]), "\x00", "")
		copy(p, cleaned)
		n = len(cleaned)
	}
	return n, err
}
