package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frank-Junran-Yang/portfolio/internal/database"
	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
	"github.com/Frank-Junran-Yang/portfolio/internal/model"
	"github.com/Frank-Junran-Yang/portfolio/internal/query"
)

const sampleCSV = `file,line,type,commit,author,date,time,timezone,datetime,depth,length
index.html,1,html,a1,frank,2025-02-10,14:03:00,-05:00,2025-02-10T14:03:00-05:00,0,20
index.html,2,html,a1,frank,2025-02-10,14:03:00,-05:00,2025-02-10T14:03:00-05:00,1,18
meta/main.js,1,js,b2,frank,2025-02-11,09:30:00,-05:00,2025-02-11T09:30:00-05:00,0,42
`

func writeCSV(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "loc.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeCSV(t, t.TempDir(), sampleCSV)

	snap, err := Load(context.Background(), FileSource{Path: path}, Options{RepoURL: "https://github.com/x/y"})
	require.NoError(t, err)

	assert.Equal(t, path, snap.Source)
	assert.Len(t, snap.Records, 3)
	require.Len(t, snap.Commits, 2)
	assert.Equal(t, "a1", snap.Commits[0].ID)
	assert.Equal(t, 2, snap.Commits[0].TotalLines)
	assert.Equal(t, "https://github.com/x/y/commit/b2", snap.Commits[1].URL)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "file,line,type,commit,author,date,time,timezone,datetime,depth,length\n")

	_, err := Load(context.Background(), FileSource{Path: path}, Options{})
	var empty *locparser.EmptyDatasetError
	assert.True(t, errors.As(err, &empty))
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, FileSource{Path: "unused.csv"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadStore(t *testing.T) {
	dir := t.TempDir()
	res, err := locparser.ReadFile(writeCSV(t, dir, sampleCSV), locparser.Options{}, nil)
	require.NoError(t, err)

	store, err := database.CreateSQLite(filepath.Join(dir, "loc.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	_, err = store.InsertRecords(res.Records, nil)
	require.NoError(t, err)

	snap, err := Load(context.Background(), StoreSource{Store: store}, Options{})
	require.NoError(t, err)
	require.Len(t, snap.Commits, 2)
	assert.Equal(t, "a1", snap.Commits[0].ID)
	assert.True(t, snap.Commits[0].Timestamp.Equal(res.Records[0].Timestamp))

	q := query.New(0)
	q.AddPredicate(query.Simple("type", query.Equal, "js"))
	snap, err = Load(context.Background(), StoreSource{Store: store, Query: q}, Options{})
	require.NoError(t, err)
	require.Len(t, snap.Commits, 1)
	assert.Equal(t, "b2", snap.Commits[0].ID)

	q = query.New(0)
	q.AddPredicate(query.Simple("type", query.Equal, "go"))
	_, err = Load(context.Background(), StoreSource{Store: store, Query: q}, Options{})
	var empty *locparser.EmptyDatasetError
	assert.True(t, errors.As(err, &empty))
}

// pgStore answers reads with a Postgres dialect and records the SQL it ran.
type pgStore struct {
	database.Store
	ran []string
}

func (s *pgStore) Dialect() database.Dialect { return &database.PostgresDialect{} }
func (s *pgStore) Path() string              { return "postgres://test" }

func (s *pgStore) ExecuteQuery(sql string, args []interface{}) ([]*model.LineRecord, error) {
	s.ran = append(s.ran, sql)
	return []*model.LineRecord{{
		Commit:    "a1",
		File:      "index.html",
		Timestamp: time.Date(2025, 2, 10, 14, 3, 0, 0, time.UTC),
	}}, nil
}

func TestStoreSourceLeavesCallerQueryAlone(t *testing.T) {
	q := query.New(0)
	q.AddPredicate(query.Simple("type", query.Equal, "js"))
	before, _ := q.Build()

	store := &pgStore{}
	_, err := StoreSource{Store: store, Query: q}.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, store.ran, 1)
	assert.Contains(t, store.ran[0], "$1")

	after, _ := q.Build()
	assert.Equal(t, before, after)
	assert.Contains(t, after, "?")
	assert.False(t, strings.Contains(after, "$1"))
}

func TestHolder(t *testing.T) {
	var h Holder

	_, err := h.Current()
	assert.ErrorIs(t, err, ErrNoDataset)

	boom := errors.New("boom")
	h.Fail(boom)
	_, err = h.Current()
	assert.ErrorIs(t, err, boom)

	snap := &Snapshot{Source: "a"}
	h.Set(snap)
	got, err := h.Current()
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.NoError(t, h.LastError())

	// A failed reload keeps serving the last good snapshot.
	h.Fail(boom)
	got, err = h.Current()
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.ErrorIs(t, h.LastError(), boom)
}

func TestHolderReload(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, sampleCSV)
	var h Holder

	snap, err := h.Reload(context.Background(), FileSource{Path: path}, Options{})
	require.NoError(t, err)
	cur, err := h.Current()
	require.NoError(t, err)
	assert.Same(t, snap, cur)

	_, err = h.Reload(context.Background(), FileSource{Path: filepath.Join(dir, "missing.csv")}, Options{})
	assert.Error(t, err)
	assert.Error(t, h.LastError())
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, sampleCSV)

	changed := make(chan struct{}, 4)
	w, err := Watch(path, nil, func() { changed <- struct{}{} })
	require.NoError(t, err)
	defer w.Stop()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected change notification")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "nope", "loc.csv"), nil, func() {})
	assert.Error(t, err)
}

func TestWatchStopTwice(t *testing.T) {
	path := writeCSV(t, t.TempDir(), sampleCSV)
	w, err := Watch(path, nil, func() {})
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}
