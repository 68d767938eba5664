package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frank-Junran-Yang/portfolio/internal/chart"
	"github.com/Frank-Junran-Yang/portfolio/internal/config"
	"github.com/Frank-Junran-Yang/portfolio/internal/database"
	"github.com/Frank-Junran-Yang/portfolio/internal/dataset"
	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
	"github.com/Frank-Junran-Yang/portfolio/internal/selection"
)

const sampleCSV = `file,line,type,commit,author,date,time,timezone,datetime,depth,length
index.html,1,html,a1,frank,2025-02-10,14:03:00,-05:00,2025-02-10T14:03:00-05:00,0,10
index.html,2,html,a1,frank,2025-02-10,14:03:00,-05:00,2025-02-10T14:03:00-05:00,1,12
meta/main.js,1,js,b2,frank,2025-02-11,09:30:00,-05:00,2025-02-11T09:30:00-05:00,0,30
style.css,1,css,c3,frank,2025-02-20,22:15:00,-05:00,2025-02-20T22:15:00-05:00,0,5
style.css,2,css,c3,frank,2025-02-20,22:15:00,-05:00,2025-02-20T22:15:00-05:00,1,8
style.css,3,css,c3,frank,2025-02-20,22:15:00,-05:00,2025-02-20T22:15:00-05:00,1,9
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loc.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LogConfig{Level: "DEBUG", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())

	_, err = newLogger(config.LogConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
}

func TestImportRecords(t *testing.T) {
	src := writeSample(t)
	dbPath := filepath.Join(t.TempDir(), "loc.db")

	store, err := openImportStore("sqlite", dbPath, false, nil)
	require.NoError(t, err)
	defer store.Close()

	var phases []string
	n, res, err := importRecords(store, src, "", locparser.Options{}, func(phase string, _, _ int) {
		if len(phases) == 0 || phases[len(phases)-1] != phase {
			phases = append(phases, phase)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 0, res.Mismatches)
	assert.Equal(t, []string{phaseReading, phaseInserting, phaseMetadata, phaseDone}, phases)

	source, err := store.GetMeta("source")
	require.NoError(t, err)
	assert.Equal(t, src, source)
	policy, err := store.GetMeta("timestamp_policy")
	require.NoError(t, err)
	assert.Equal(t, "prefer-datetime", policy)

	count, err := store.CountRecords("", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 6, count)
}

func TestImportRefusesExistingSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "loc.db")
	store, err := openImportStore("sqlite", dbPath, false, nil)
	require.NoError(t, err)
	store.Close()

	_, err = openImportStore("sqlite", dbPath, false, nil)
	assert.ErrorContains(t, err, "--append")

	store, err = openImportStore("sqlite", dbPath, true, nil)
	require.NoError(t, err)
	store.Close()
}

func TestImportAppendKeepsOrder(t *testing.T) {
	src := writeSample(t)
	dbPath := filepath.Join(t.TempDir(), "loc.db")

	store, err := openImportStore("sqlite", dbPath, false, nil)
	require.NoError(t, err)
	_, _, err = importRecords(store, src, "csv", locparser.Options{}, nil)
	require.NoError(t, err)
	_, _, err = importRecords(store, src, "csv", locparser.Options{}, nil)
	require.NoError(t, err)

	records, err := store.QueryRecords("", nil, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 12)
	for i, r := range records {
		assert.EqualValues(t, i, r.Seq)
	}
	store.Close()
}

func TestImportRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("file,line\nindex.html,1\n"), 0o644))

	store, err := database.CreateSQLite(filepath.Join(t.TempDir(), "bad.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	_, _, err = importRecords(store, path, "", locparser.Options{}, nil)
	assert.ErrorContains(t, err, "invalid loc CSV")
}

func TestRawSource(t *testing.T) {
	src := writeSample(t)
	store, err := database.CreateSQLite(filepath.Join(t.TempDir(), "loc.db"), nil)
	require.NoError(t, err)
	defer store.Close()
	_, _, err = importRecords(store, src, "", locparser.Options{}, nil)
	require.NoError(t, err)

	snap, err := dataset.Load(context.Background(), rawSource{store: store, where: "type = 'css'"}, dataset.Options{})
	require.NoError(t, err)
	assert.Len(t, snap.Records, 3)
	require.Len(t, snap.Commits, 1)
	assert.Equal(t, "c3", snap.Commits[0].ID)

	_, err = dataset.Load(context.Background(), rawSource{store: store, where: "type = 'go'"}, dataset.Options{})
	var empty *locparser.EmptyDatasetError
	assert.ErrorAs(t, err, &empty)
}

func TestStatsTables(t *testing.T) {
	snap, err := dataset.Load(context.Background(), dataset.FileSource{Path: writeSample(t)}, dataset.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, snap, snap.Commits)
	printBreakdown(&buf, selection.BreakdownOf(snap.Commits))
	printFiles(&buf, chart.Files(snap.Commits))

	out := buf.String()
	assert.Contains(t, out, "3 of 3")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "style.css")
}

func TestWriteReport(t *testing.T) {
	snap, err := dataset.Load(context.Background(), dataset.FileSource{Path: writeSample(t)}, dataset.Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, writeReport(path, snap, 100))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "echarts")
}

func TestSortedByCount(t *testing.T) {
	got := sortedByCount(map[string]int64{"b": 2, "a": 2, "c": 5})
	assert.Equal(t, []string{"c", "a", "b"}, got)
}
