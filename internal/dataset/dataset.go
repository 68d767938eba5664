// Package dataset loads line records into an immutable snapshot of commits
// and publishes it to concurrent readers.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/commits"
	"github.com/Frank-Junran-Yang/portfolio/internal/database"
	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
	"github.com/Frank-Junran-Yang/portfolio/internal/model"
	"github.com/Frank-Junran-Yang/portfolio/internal/query"
)

// ErrNoDataset is returned by Holder.Current before any load has finished.
var ErrNoDataset = errors.New("no dataset loaded")

// Source produces the raw records of one load.
type Source interface {
	Name() string
	Read(ctx context.Context) (*locparser.ReadResult, error)
}

// FileSource reads a loc CSV or JSON Lines file.
// Format is "csv", "jsonl", or empty/"auto" to go by the file extension.
type FileSource struct {
	Path    string
	Format  string
	Options locparser.Options
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Read(ctx context.Context) (*locparser.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s.Format {
	case "csv":
		return locparser.ReadRecords(s.Path, s.Options, nil)
	case "jsonl":
		return locparser.ReadJSONL(s.Path, s.Options, nil)
	default:
		return locparser.ReadFile(s.Path, s.Options, nil)
	}
}

// StoreSource reads records previously imported into a database store.
// Query narrows the records; nil reads everything in seq order.
type StoreSource struct {
	Store database.Store
	Query *query.Query
}

func (s StoreSource) Name() string { return s.Store.Path() }

func (s StoreSource) Read(ctx context.Context) (*locparser.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := query.New(0)
	if s.Query != nil {
		// The caller's query stays on its own dialect.
		qc := *s.Query
		q = &qc
	}
	q.SetDialect(s.Store.Dialect())

	sqlStr, args := q.Build()
	records, err := s.Store.ExecuteQuery(sqlStr, args)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	if len(records) == 0 {
		return nil, &locparser.EmptyDatasetError{Source: s.Store.Path()}
	}
	return &locparser.ReadResult{Records: records, Count: len(records)}, nil
}

// Options controls aggregation.
type Options struct {
	RepoURL string
}

// Snapshot is one loaded dataset. Nothing in it is modified after Load returns.
type Snapshot struct {
	Source   string
	Records  []*model.LineRecord
	Commits  []*model.Commit
	LoadedAt time.Time
	Result   *locparser.ReadResult
}

// Load reads src and aggregates its records into commits.
func Load(ctx context.Context, src Source, opts Options) (*Snapshot, error) {
	res, err := src.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Name(), err)
	}
	return &Snapshot{
		Source:   src.Name(),
		Records:  res.Records,
		Commits:  commits.Aggregate(res.Records, commits.Options{RepoURL: opts.RepoURL}),
		LoadedAt: time.Now(),
		Result:   res,
	}, nil
}

type holderState struct {
	snap *Snapshot
	err  error
}

// Holder publishes the current snapshot. Readers never see a half-built one.
type Holder struct {
	cur atomic.Pointer[holderState]
}

// Set publishes snap and clears any previous load error.
func (h *Holder) Set(snap *Snapshot) {
	h.cur.Store(&holderState{snap: snap})
}

// Fail records a load error. A snapshot published earlier stays in service.
func (h *Holder) Fail(err error) {
	prev := h.cur.Load()
	st := &holderState{err: err}
	if prev != nil {
		st.snap = prev.snap
	}
	h.cur.Store(st)
}

// Current returns the published snapshot. Without one it returns the last
// load error, or ErrNoDataset if nothing was attempted.
func (h *Holder) Current() (*Snapshot, error) {
	st := h.cur.Load()
	switch {
	case st == nil:
		return nil, ErrNoDataset
	case st.snap != nil:
		return st.snap, nil
	default:
		return nil, st.err
	}
}

// LastError returns the error of the most recent failed load, if any.
func (h *Holder) LastError() error {
	if st := h.cur.Load(); st != nil {
		return st.err
	}
	return nil
}

// Reload loads src and publishes the result, or records the failure.
func (h *Holder) Reload(ctx context.Context, src Source, opts Options) (*Snapshot, error) {
	snap, err := Load(ctx, src, opts)
	if err != nil {
		h.Fail(err)
		return nil, err
	}
	h.Set(snap)
	return snap, nil
}
