package database

import (
	"errors"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// ErrUnsupportedDriver is returned by the factory for unknown driver names.
var ErrUnsupportedDriver = errors.New("unsupported driver")

// Store defines the interface for all database operations on line records.
// Callers depend on the interface, not on a concrete database type.
type Store interface {
	// InsertRecords appends records after any already stored, keeping their
	// relative order. onProgress is called every 10,000 records if non-nil.
	InsertRecords(records []*model.LineRecord, onProgress func(int)) (int, error)
	// QueryRecords returns records matching a WHERE clause, ordered by seq
	// unless orderBy is given.
	QueryRecords(where string, args []interface{}, orderBy string, limit, offset int) ([]*model.LineRecord, error)
	CountRecords(where string, args []interface{}) (int64, error)

	// Query execution for pre-built SQL (from query.Query Build).
	// The scan order matches model.Fields.
	ExecuteQuery(sql string, args []interface{}) ([]*model.LineRecord, error)
	ExecuteCountQuery(sql string, args []interface{}) (int64, error)

	// Metadata
	GetMinMaxTimestamp() (time.Time, time.Time, error)
	GetDistinctValues(field string) (map[string]int64, error)
	SetMeta(key, value string) error
	GetMeta(key string) (string, error)

	// Schema and maintenance
	RebuildIndexes(fields []string) error
	Migrate() error
	Dialect() Dialect

	// Lifecycle
	Close() error
	Path() string
}
