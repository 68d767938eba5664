package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Frank-Junran-Yang/portfolio/internal/chart"
	"github.com/Frank-Junran-Yang/portfolio/internal/database"
	"github.com/Frank-Junran-Yang/portfolio/internal/dataset"
	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
	"github.com/Frank-Junran-Yang/portfolio/internal/selection"
	"github.com/Frank-Junran-Yang/portfolio/internal/timeline"
)

// App is the struct Wails binds to the desktop window.
// All exported methods become callable from JavaScript.
type App struct {
	ctx    context.Context
	site   *siteDeps
	logger *log.Logger

	mu       sync.Mutex
	// state follows the snapshot it was built from; a reload rebuilds it
	// with the same progress and brush.
	state    *chart.State
	stateFor *dataset.Snapshot
	// store is a database opened from the window, replacing the configured source.
	store    database.Store
}

// NewApp creates a new App instance.
func NewApp(s *siteDeps, logger *log.Logger) *App {
	return &App{site: s, logger: logger}
}

// startup is called when the app starts. The context is saved
// so we can call runtime methods (dialogs, events, etc.)
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called when the app is closing.
func (a *App) shutdown(_ context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

// emit sends an event to the window. Without a window it does nothing.
func (a *App) emit(name string, data ...interface{}) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, data...)
}

func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// -- Dataset Operations --

// DatasetInfo summarises the loaded dataset.
type DatasetInfo struct {
	Source     string    `json:"source"`
	Records    int       `json:"records"`
	Commits    int       `json:"commits"`
	Mismatches int       `json:"mismatches"`
	First      time.Time `json:"first"`
	Last       time.Time `json:"last"`
}

// Info returns the current dataset summary.
func (a *App) Info() (*DatasetInfo, error) {
	snap, err := a.site.holder.Current()
	if err != nil {
		return nil, err
	}
	info := &DatasetInfo{
		Source:  snap.Source,
		Records: len(snap.Records),
		Commits: len(snap.Commits),
	}
	if snap.Result != nil {
		info.Mismatches = snap.Result.Mismatches
	}
	if cur, err := timeline.NewCursor(snap.Commits); err == nil {
		info.First, info.Last = cur.Domain()
	}
	return info, nil
}

// Reload loads the current source again and tells the window.
func (a *App) Reload() (*DatasetInfo, error) {
	a.mu.Lock()
	src := a.site.source
	a.mu.Unlock()

	if _, err := a.site.holder.Reload(a.context(), src, a.site.opts); err != nil {
		a.logger.Error("reload failed", "source", src.Name(), "err", err)
		a.emit("dataset:error", err.Error())
		return nil, err
	}
	info, err := a.Info()
	if err != nil {
		return nil, err
	}
	a.emit("dataset:loaded", info)
	return info, nil
}

// useStore switches the window to store and loads it.
func (a *App) useStore(store database.Store) (*DatasetInfo, error) {
	a.mu.Lock()
	if a.store != nil {
		a.store.Close()
	}
	a.store = store
	a.site.source = dataset.StoreSource{Store: store}
	a.mu.Unlock()
	return a.Reload()
}

// OpenDatabase opens a file dialog and loads records from an existing
// SQLite store.
func (a *App) OpenDatabase() (*DatasetInfo, error) {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open Record Store",
		Filters: []runtime.FileFilter{
			{DisplayName: "SQLite Database (*.db)", Pattern: "*.db"},
			{DisplayName: "All Files (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil // user cancelled
	}

	store, err := database.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return a.useStore(store)
}

// ImportCSV opens a file dialog for a loc CSV or JSON Lines file, creates a
// new SQLite store, imports the records and loads them.
func (a *App) ImportCSV() (*DatasetInfo, error) {
	srcPath, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Import loc Dataset",
		Filters: []runtime.FileFilter{
			{DisplayName: "loc datasets (*.csv, *.jsonl)", Pattern: "*.csv;*.jsonl;*.ndjson"},
			{DisplayName: "All Files (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return nil, err
	}
	if srcPath == "" {
		return nil, nil
	}

	dbPath, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save Database As",
		DefaultFilename: strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath)) + ".db",
		Filters: []runtime.FileFilter{
			{DisplayName: "SQLite Database (*.db)", Pattern: "*.db"},
		},
	})
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		return nil, nil
	}

	store, err := a.importFile(srcPath, dbPath)
	if err != nil {
		return nil, err
	}
	return a.useStore(store)
}

// importFile imports srcPath into a new store at dbPath, reporting
// progress to the window.
func (a *App) importFile(srcPath, dbPath string) (database.Store, error) {
	store, err := database.CreateSQLite(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	opts := locparser.Options{Policy: locparser.Policy(a.site.policy)}
	n, _, err := importRecords(store, srcPath, "", opts, func(phase string, count, total int) {
		a.emit("import:progress", map[string]interface{}{
			"phase": phase, "message": progressMessage(phase, count, total), "count": count, "total": total,
		})
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	a.logger.Info("imported", "records", n, "store", dbPath)
	return store, nil
}

func progressMessage(phase string, count, total int) string {
	switch phase {
	case phaseReading:
		if count == 0 {
			return "Reading dataset..."
		}
		return fmt.Sprintf("Read %d records...", count)
	case phaseInserting:
		return fmt.Sprintf("Inserted %d of %d records...", count, total)
	case phaseMetadata:
		return "Saving metadata..."
	default:
		return fmt.Sprintf("Import complete: %d records", count)
	}
}

// -- Chart Operations --

// ChartView is what the window redraws after a chart interaction.
type ChartView struct {
	Progress  float64       `json:"progress"`
	Cutoff    time.Time     `json:"cutoff"`
	Visible   int           `json:"visible"`
	Label     string        `json:"label"`
	Breakdown []string      `json:"breakdown"`
	Points    []chart.Point `json:"points"`
}

// stateLocked returns the chart state for the current snapshot.
// a.mu must be held.
func (a *App) stateLocked() (*chart.State, error) {
	snap, err := a.site.holder.Current()
	if err != nil {
		return nil, err
	}
	if a.state != nil && a.stateFor == snap {
		return a.state, nil
	}

	st := chart.NewState(snap.Commits, chart.Area{})
	if a.state != nil {
		st.SetProgress(a.state.Progress)
		st.SetBrush(a.state.Brush)
	}
	a.state, a.stateFor = st, snap
	return st, nil
}

func viewOf(st *chart.State) *ChartView {
	res := st.Selection()
	return &ChartView{
		Progress:  st.Progress,
		Cutoff:    st.Cutoff,
		Visible:   len(st.Visible),
		Label:     res.Label(),
		Breakdown: res.Breakdown.Format(),
		Points:    st.Points(),
	}
}

// update applies fn to the chart state and returns the redrawn view.
func (a *App) update(fn func(*chart.State)) (*ChartView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.stateLocked()
	if err != nil {
		return nil, err
	}
	fn(st)
	return viewOf(st), nil
}

// SetProgress moves the time cursor to p, 0 to 100.
func (a *App) SetProgress(p float64) (*ChartView, error) {
	return a.update(func(st *chart.State) { st.SetProgress(p) })
}

// Brush selects the commits inside rect, in chart pixels.
func (a *App) Brush(rect selection.Rect) (*ChartView, error) {
	return a.update(func(st *chart.State) { st.SetBrush(&rect) })
}

// ClearBrush removes the selection rectangle.
func (a *App) ClearBrush() (*ChartView, error) {
	return a.update(func(st *chart.State) { st.SetBrush(nil) })
}

// Steps returns the scrollytelling steps for the current dataset.
func (a *App) Steps() ([]timeline.Step, error) {
	snap, err := a.site.holder.Current()
	if err != nil {
		return nil, err
	}
	return timeline.Steps(snap.Commits), nil
}

// Version returns the application version string.
func (a *App) Version() string {
	return Version
}
