package database

import "fmt"

// SQLiteDialect implements the Dialect interface for SQLite databases.
// It also satisfies query.QueryDialect through structural typing.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string             { return "sqlite" }
func (d *SQLiteDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *SQLiteDialect) Placeholder(index int) string    { return "?" }
func (d *SQLiteDialect) QuoteColumn(name string) string  { return name }

func (d *SQLiteDialect) SchemaCheckColumnSQL(table, column string) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM pragma_table_info('%s') WHERE name='%s'", table, column)
}

func (d *SQLiteDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS line_records (
		seq INTEGER PRIMARY KEY, commit_id TEXT NOT NULL,
		file TEXT, type TEXT, line INT, depth INT, length INT,
		author TEXT, date TEXT, time TEXT, timezone TEXT, datetime TEXT,
		ts TEXT NOT NULL, ts_unix BIGINT NOT NULL, ts_source TEXT DEFAULT ''
	)`
}

func (d *SQLiteDialect) CreateMetaTableSQL() string {
	return "CREATE TABLE IF NOT EXISTS record_meta (key TEXT PRIMARY KEY, value TEXT)"
}

func (d *SQLiteDialect) UpsertMetaSQL() string {
	return "INSERT OR REPLACE INTO record_meta (key, value) VALUES (?, ?)"
}

func (d *SQLiteDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, column)
}

func (d *SQLiteDialect) DropIndexSQL(indexName string) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s", indexName)
}
