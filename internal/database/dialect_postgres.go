package database

import "fmt"

// pgQuoteCol wraps a column name in double quotes if it collides with a
// PostgreSQL keyword or type name. Other names are returned as-is so
// PostgreSQL folds them to lowercase consistently with unquoted DDL.
func pgQuoteCol(name string) string {
	switch name {
	case "date", "time", "type", "line", "length":
		return `"` + name + `"`
	default:
		return name
	}
}

// PostgresDialect implements the Dialect interface for PostgreSQL databases.
// It also satisfies query.QueryDialect through structural typing.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string             { return "pgx" }
func (d *PostgresDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *PostgresDialect) Placeholder(index int) string    { return fmt.Sprintf("$%d", index) }
func (d *PostgresDialect) QuoteColumn(name string) string  { return pgQuoteCol(name) }

func (d *PostgresDialect) SchemaCheckColumnSQL(table, column string) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM information_schema.columns WHERE table_name='%s' AND column_name='%s'",
		table, column)
}

func (d *PostgresDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS line_records (
		seq BIGINT PRIMARY KEY, commit_id TEXT NOT NULL,
		file TEXT, "type" TEXT, "line" INT, depth INT, "length" INT,
		author TEXT, "date" TEXT, "time" TEXT, timezone TEXT, datetime TEXT,
		ts TEXT NOT NULL, ts_unix BIGINT NOT NULL, ts_source TEXT DEFAULT ''
	)`
}

func (d *PostgresDialect) CreateMetaTableSQL() string {
	return "CREATE TABLE IF NOT EXISTS record_meta (key TEXT PRIMARY KEY, value TEXT)"
}

func (d *PostgresDialect) UpsertMetaSQL() string {
	return "INSERT INTO record_meta (key, value) VALUES ($1, $2) " +
		"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value"
}

func (d *PostgresDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, pgQuoteCol(column))
}

func (d *PostgresDialect) DropIndexSQL(indexName string) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s", indexName)
}
