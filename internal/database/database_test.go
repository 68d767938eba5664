package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func createTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := CreateSQLite(tempDBPath(t), nil)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecord(commit string, ts time.Time) *model.LineRecord {
	return &model.LineRecord{
		Commit:          commit,
		File:            "meta/main.js",
		Type:            "js",
		Line:            12,
		Depth:           2,
		Length:          40,
		Author:          "frank",
		Date:            ts.Format("2006-01-02"),
		Time:            ts.Format("15:04:05"),
		Timezone:        ts.Format("-07:00"),
		Datetime:        ts.Format(time.RFC3339),
		Timestamp:       ts,
		TimestampSource: model.FromDatetime,
	}
}

var est = time.FixedZone("-05:00", -5*3600)

func TestCreateAndOpen(t *testing.T) {
	path := tempDBPath(t)

	db, err := CreateSQLite(path, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}

	db2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db2.Close()

	count, err := db2.CountRecords("", nil)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 records, got %d", count)
	}
	if db2.Path() != path {
		t.Errorf("expected path %s, got %s", path, db2.Path())
	}
}

func TestInsertAndQueryRecord(t *testing.T) {
	db := createTestDB(t)
	ts := time.Date(2025, 2, 10, 14, 3, 0, 0, est)

	n, err := db.InsertRecords([]*model.LineRecord{sampleRecord("a1", ts)}, nil)
	if err != nil {
		t.Fatalf("InsertRecords failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 inserted, got %d", n)
	}

	records, err := db.QueryRecords("", nil, "", 0, 0)
	if err != nil {
		t.Fatalf("QueryRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.Commit != "a1" || got.File != "meta/main.js" || got.Line != 12 {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("expected timestamp %v, got %v", ts, got.Timestamp)
	}
	if _, off := got.Timestamp.Zone(); off != -5*3600 {
		t.Errorf("expected offset to survive storage, got %d", off)
	}
	if got.TimestampSource != model.FromDatetime {
		t.Errorf("expected ts_source datetime, got %q", got.TimestampSource)
	}
}

func TestInsertAppendsSequence(t *testing.T) {
	db := createTestDB(t)
	ts := time.Date(2025, 2, 10, 14, 3, 0, 0, time.UTC)

	first := []*model.LineRecord{sampleRecord("a", ts), sampleRecord("b", ts)}
	second := []*model.LineRecord{sampleRecord("c", ts)}
	if _, err := db.InsertRecords(first, nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := db.InsertRecords(second, nil); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	records, err := db.QueryRecords("", nil, "", 0, 0)
	if err != nil {
		t.Fatalf("QueryRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"a", "b", "c"} {
		if records[i].Commit != want || records[i].Seq != int64(i) {
			t.Errorf("record %d: expected %s/seq %d, got %s/seq %d",
				i, want, i, records[i].Commit, records[i].Seq)
		}
	}
}

func TestInsertBatchProgress(t *testing.T) {
	db := createTestDB(t)
	ts := time.Date(2025, 2, 10, 14, 3, 0, 0, time.UTC)

	records := make([]*model.LineRecord, 20000)
	for i := range records {
		records[i] = sampleRecord("bulk", ts.Add(time.Duration(i)*time.Second))
	}

	var calls []int
	n, err := db.InsertRecords(records, func(c int) { calls = append(calls, c) })
	if err != nil {
		t.Fatalf("InsertRecords failed: %v", err)
	}
	if n != 20000 {
		t.Errorf("expected 20000 inserted, got %d", n)
	}
	if len(calls) != 2 || calls[0] != 10000 || calls[1] != 20000 {
		t.Errorf("expected progress at 10000 and 20000, got %v", calls)
	}
}

func TestQueryRecordsWhereLimit(t *testing.T) {
	db := createTestDB(t)
	base := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	var records []*model.LineRecord
	for i := 0; i < 10; i++ {
		r := sampleRecord("c", base.Add(time.Duration(i)*time.Hour))
		if i%2 == 0 {
			r.Type = "css"
		}
		records = append(records, r)
	}
	if _, err := db.InsertRecords(records, nil); err != nil {
		t.Fatalf("InsertRecords failed: %v", err)
	}

	got, err := db.QueryRecords("type = ?", []interface{}{"css"}, "", 2, 1)
	if err != nil {
		t.Fatalf("QueryRecords failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Seq != 2 || got[1].Seq != 4 {
		t.Errorf("expected seq 2 and 4, got %d and %d", got[0].Seq, got[1].Seq)
	}

	count, err := db.CountRecords("type = ?", []interface{}{"css"})
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 css records, got %d", count)
	}
}

func TestGetMinMaxTimestamp(t *testing.T) {
	db := createTestDB(t)

	if _, _, err := db.GetMinMaxTimestamp(); !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords on empty table, got %v", err)
	}

	early := time.Date(2024, 9, 1, 8, 0, 0, 0, est)
	late := time.Date(2025, 3, 4, 23, 30, 0, 0, time.UTC)
	_, err := db.InsertRecords([]*model.LineRecord{
		sampleRecord("b", late), sampleRecord("a", early),
	}, nil)
	if err != nil {
		t.Fatalf("InsertRecords failed: %v", err)
	}

	lo, hi, err := db.GetMinMaxTimestamp()
	if err != nil {
		t.Fatalf("GetMinMaxTimestamp failed: %v", err)
	}
	if !lo.Equal(early) || !hi.Equal(late) {
		t.Errorf("expected %v..%v, got %v..%v", early, late, lo, hi)
	}
}

func TestGetDistinctValues(t *testing.T) {
	db := createTestDB(t)
	ts := time.Date(2025, 2, 10, 14, 3, 0, 0, time.UTC)

	a := sampleRecord("a", ts)
	b := sampleRecord("a", ts)
	c := sampleRecord("b", ts)
	c.Author = ""
	if _, err := db.InsertRecords([]*model.LineRecord{a, b, c}, nil); err != nil {
		t.Fatalf("InsertRecords failed: %v", err)
	}

	commits, err := db.GetDistinctValues("commit_id")
	if err != nil {
		t.Fatalf("GetDistinctValues failed: %v", err)
	}
	if commits["a"] != 2 || commits["b"] != 1 {
		t.Errorf("unexpected commit counts: %v", commits)
	}

	authors, err := db.GetDistinctValues("author")
	if err != nil {
		t.Fatalf("GetDistinctValues failed: %v", err)
	}
	if len(authors) != 1 || authors["frank"] != 2 {
		t.Errorf("expected empty author to be skipped, got %v", authors)
	}
}

func TestGetDistinctValuesInvalidField(t *testing.T) {
	db := createTestDB(t)

	_, err := db.GetDistinctValues("commit_id; DROP TABLE line_records")
	if err == nil {
		t.Error("expected error for invalid field name")
	}
}

func TestMeta(t *testing.T) {
	db := createTestDB(t)

	v, err := db.GetMeta("source")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value for unset key, got %q", v)
	}

	if err := db.SetMeta("source", "loc.csv"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	if err := db.SetMeta("source", "meta/loc.csv"); err != nil {
		t.Fatalf("SetMeta overwrite failed: %v", err)
	}
	v, err = db.GetMeta("source")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if v != "meta/loc.csv" {
		t.Errorf("expected overwritten value, got %q", v)
	}
}

func TestRebuildIndexes(t *testing.T) {
	db := createTestDB(t)

	if err := db.RebuildIndexes([]string{"file", "author"}); err != nil {
		t.Fatalf("RebuildIndexes failed: %v", err)
	}

	var count int
	err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='file_idx'",
	).Scan(&count)
	if err != nil {
		t.Fatalf("checking index: %v", err)
	}
	if count != 1 {
		t.Errorf("expected file_idx to exist, got %d", count)
	}

	if err := db.RebuildIndexes([]string{"bogus"}); err == nil {
		t.Error("expected error for unknown index field")
	}
}

func TestMigrateAddsTimestampSource(t *testing.T) {
	path := tempDBPath(t)
	db, err := CreateSQLite(path, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := db.Conn().Exec("ALTER TABLE line_records DROP COLUMN ts_source"); err != nil {
		t.Fatalf("dropping column: %v", err)
	}
	db.Close()

	db2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db2.Close()

	var count int
	err = db2.Conn().QueryRow(
		db2.Dialect().SchemaCheckColumnSQL("line_records", "ts_source"),
	).Scan(&count)
	if err != nil {
		t.Fatalf("schema check: %v", err)
	}
	if count != 1 {
		t.Errorf("expected ts_source to be restored, got %d", count)
	}
}

func TestFactoryUnsupportedDriver(t *testing.T) {
	if _, err := OpenStore("mysql", "x"); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("expected ErrUnsupportedDriver, got %v", err)
	}
	if _, err := CreateStore("mysql", "x", nil); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestFactorySQLite(t *testing.T) {
	path := tempDBPath(t)
	s, err := CreateStore("sqlite", path, nil)
	if err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	s.Close()

	s, err = OpenStore("sqlite", path)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("expected path %s, got %s", path, s.Path())
	}
}

func TestPostgresDialect(t *testing.T) {
	d := &PostgresDialect{}
	if d.Placeholder(3) != "$3" {
		t.Errorf("expected $3, got %s", d.Placeholder(3))
	}
	if d.QuoteColumn("time") != `"time"` {
		t.Errorf("expected quoted time, got %s", d.QuoteColumn("time"))
	}
	if d.QuoteColumn("commit_id") != "commit_id" {
		t.Errorf("expected bare commit_id, got %s", d.QuoteColumn("commit_id"))
	}
	if pgSanitizeString("a\x00b") != "ab" {
		t.Error("expected null bytes to be stripped")
	}
}
