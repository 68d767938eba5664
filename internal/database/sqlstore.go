package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// ErrNoRecords is returned by GetMinMaxTimestamp on an empty table.
var ErrNoRecords = errors.New("no records stored")

// Default fields to index when creating a new database.
var DefaultIndexFields = []string{"commit_id", "ts_unix", "type", "author"}

// sqlStore holds the operations shared by every backend. Backends differ only
// in their Dialect and in how string values are cleaned before insert.
type sqlStore struct {
	path     string
	conn     *sql.DB
	dialect  Dialect
	sanitize func(string) string
}

func newSQLStore(path string, conn *sql.DB, d Dialect, sanitize func(string) string) *sqlStore {
	if sanitize == nil {
		sanitize = func(s string) string { return s }
	}
	return &sqlStore{path: path, conn: conn, dialect: d, sanitize: sanitize}
}

// Close closes the database connection.
func (db *sqlStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the file path or connection string of the database.
func (db *sqlStore) Path() string {
	return db.path
}

// Conn returns the underlying *sql.DB connection for advanced query usage.
func (db *sqlStore) Conn() *sql.DB {
	return db.conn
}

// Dialect returns the SQL dialect of the backend.
func (db *sqlStore) Dialect() Dialect {
	return db.dialect
}

// columnList returns model.Fields quoted for the dialect, comma separated.
func (db *sqlStore) columnList() string {
	cols := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		cols[i] = db.dialect.QuoteColumn(f)
	}
	return strings.Join(cols, ", ")
}

func (db *sqlStore) insertSQL() string {
	ph := make([]string, len(model.Fields))
	for i := range model.Fields {
		ph[i] = db.dialect.Placeholder(i + 1)
	}
	return "INSERT INTO line_records (" + db.columnList() + ") VALUES (" + strings.Join(ph, ", ") + ")"
}

// createSchema builds all tables and indexes for a new database.
func (db *sqlStore) createSchema(indexFields []string) error {
	if indexFields == nil {
		indexFields = DefaultIndexFields
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.Exec(db.dialect.CreateTableSQL()); err != nil {
		return fmt.Errorf("creating line_records table: %w", err)
	}
	if _, err = tx.Exec(db.dialect.CreateMetaTableSQL()); err != nil {
		return fmt.Errorf("creating record_meta table: %w", err)
	}

	for _, field := range indexFields {
		if !isValidField(field) {
			return fmt.Errorf("invalid index field: %s", field)
		}
		_, err = tx.Exec(db.dialect.CreateIndexSQL(field+"_idx", "line_records", field))
		if err != nil {
			return fmt.Errorf("creating index on %s: %w", field, err)
		}
	}

	return tx.Commit()
}

// migrate applies schema migrations for backward compatibility.
func (db *sqlStore) migrate() error {
	// Stores written before the timestamp policy existed lack ts_source.
	var count int
	err := db.conn.QueryRow(
		db.dialect.SchemaCheckColumnSQL("line_records", "ts_source"),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking schema: %w", err)
	}
	if count == 0 {
		if _, err := db.conn.Exec("ALTER TABLE line_records ADD COLUMN ts_source TEXT DEFAULT ''"); err != nil {
			return fmt.Errorf("adding ts_source column: %w", err)
		}
	}
	_, err = db.conn.Exec(db.dialect.CreateMetaTableSQL())
	return err
}

// Migrate applies any pending schema migrations.
func (db *sqlStore) Migrate() error {
	return db.migrate()
}

// InsertRecords appends a batch of records inside a single transaction.
// Sequence numbers continue after the highest one already stored.
// The onProgress callback is called every 10,000 records with the current count.
func (db *sqlStore) InsertRecords(records []*model.LineRecord, onProgress func(count int)) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq) + 1, 0) FROM line_records").Scan(&next); err != nil {
		return 0, fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.Prepare(db.insertSQL())
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	s := db.sanitize
	inserted := 0
	for _, r := range records {
		_, err := stmt.Exec(
			next+int64(inserted), s(r.Commit), s(r.File), s(r.Type),
			r.Line, r.Depth, r.Length,
			s(r.Author), s(r.Date), s(r.Time), s(r.Timezone), s(r.Datetime),
			r.Timestamp.Format(time.RFC3339Nano), r.Timestamp.UnixNano(), string(r.TimestampSource),
		)
		if err != nil {
			return inserted, fmt.Errorf("inserting record %d: %w", inserted+1, err)
		}
		inserted++
		if onProgress != nil && inserted%10000 == 0 {
			onProgress(inserted)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

// QueryRecords returns records matching whereClause (without the WHERE keyword).
// Results are ordered by seq when orderBy is empty.
func (db *sqlStore) QueryRecords(whereClause string, args []interface{}, orderBy string, limit, offset int) ([]*model.LineRecord, error) {
	query := "SELECT " + db.columnList() + " FROM line_records"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	if orderBy == "" {
		orderBy = "seq ASC"
	}
	query += " ORDER BY " + orderBy
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CountRecords returns the number of records, optionally filtered by a WHERE clause.
func (db *sqlStore) CountRecords(whereClause string, args []interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM line_records"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	var count int64
	err := db.conn.QueryRow(query, args...).Scan(&count)
	return count, err
}

// ExecuteQuery runs a pre-built SQL SELECT whose column list is model.Fields,
// as produced by query.Query.Build.
func (db *sqlStore) ExecuteQuery(sqlStr string, args []interface{}) ([]*model.LineRecord, error) {
	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ExecuteCountQuery runs a pre-built COUNT query and returns the result.
func (db *sqlStore) ExecuteCountQuery(sqlStr string, args []interface{}) (int64, error) {
	var count int64
	if err := db.conn.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("executing count query: %w", err)
	}
	return count, nil
}

// GetMinMaxTimestamp returns the earliest and latest record instants, in UTC.
func (db *sqlStore) GetMinMaxTimestamp() (time.Time, time.Time, error) {
	var lo, hi sql.NullInt64
	err := db.conn.QueryRow("SELECT MIN(ts_unix), MAX(ts_unix) FROM line_records").Scan(&lo, &hi)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !lo.Valid || !hi.Valid {
		return time.Time{}, time.Time{}, ErrNoRecords
	}
	return time.Unix(0, lo.Int64).UTC(), time.Unix(0, hi.Int64).UTC(), nil
}

// GetDistinctValues returns a map of distinct values and their counts for a given column.
func (db *sqlStore) GetDistinctValues(fieldName string) (map[string]int64, error) {
	// Validate field name against known fields to prevent injection
	if !isValidField(fieldName) {
		return nil, fmt.Errorf("invalid field name: %s", fieldName)
	}
	col := db.dialect.QuoteColumn(fieldName)
	query := fmt.Sprintf(
		"SELECT CAST(%s AS TEXT), COUNT(*) FROM line_records GROUP BY %s", col, col)

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var value sql.NullString
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, err
		}
		if value.Valid && value.String != "" {
			result[value.String] = count
		}
	}
	return result, rows.Err()
}

// SetMeta stores a key/value pair describing the imported data.
func (db *sqlStore) SetMeta(key, value string) error {
	_, err := db.conn.Exec(db.dialect.UpsertMetaSQL(), key, db.sanitize(value))
	return err
}

// GetMeta returns a stored metadata value, or "" if the key is unset.
func (db *sqlStore) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.QueryRow(
		"SELECT value FROM record_meta WHERE key = "+db.dialect.Placeholder(1), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// RebuildIndexes drops all existing indexes and creates new ones for the given fields.
func (db *sqlStore) RebuildIndexes(indexFields []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range model.Fields {
		if _, err = tx.Exec(db.dialect.DropIndexSQL(f + "_idx")); err != nil {
			return fmt.Errorf("dropping index %s_idx: %w", f, err)
		}
	}

	for _, f := range indexFields {
		if !isValidField(f) {
			return fmt.Errorf("invalid index field: %s", f)
		}
		if _, err = tx.Exec(db.dialect.CreateIndexSQL(f+"_idx", "line_records", f)); err != nil {
			return fmt.Errorf("creating index %s_idx: %w", f, err)
		}
	}

	return tx.Commit()
}

// scanRecords converts sql.Rows in model.Fields column order into records.
func scanRecords(rows *sql.Rows) ([]*model.LineRecord, error) {
	var records []*model.LineRecord
	for rows.Next() {
		r := &model.LineRecord{}
		var ts, src sql.NullString
		var file, typ, author, date, clock, tz, raw sql.NullString
		var line, depth, length sql.NullInt64
		var unix int64
		err := rows.Scan(
			&r.Seq, &r.Commit, &file, &typ, &line, &depth, &length,
			&author, &date, &clock, &tz, &raw, &ts, &unix, &src,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		r.File, r.Type, r.Author = file.String, typ.String, author.String
		r.Date, r.Time, r.Timezone, r.Datetime = date.String, clock.String, tz.String, raw.String
		r.Line, r.Depth, r.Length = int(line.Int64), int(depth.Int64), int(length.Int64)
		r.TimestampSource = model.TimestampSource(src.String)

		// ts keeps the author's offset; ts_unix is the fallback for rows
		// whose text form was lost.
		r.Timestamp = time.Unix(0, unix).UTC()
		if t, err := time.Parse(time.RFC3339Nano, ts.String); err == nil {
			r.Timestamp = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// isValidField checks that a field name is one of the known line_records columns.
// This prevents SQL injection when field names are interpolated into queries.
func isValidField(name string) bool {
	for _, f := range model.Fields {
		if f == name {
			return true
		}
	}
	return false
}
