package database

// Dialect abstracts all database-specific SQL generation.
// Each database backend (SQLite, PostgreSQL) implements this interface.
// Placeholder and QuoteColumn match the query.QueryDialect interface through
// Go structural typing, so a Dialect can also serve as a QueryDialect.
type Dialect interface {
	// DriverName returns the database/sql driver name (e.g. "sqlite", "pgx").
	DriverName() string

	// DSN returns the data source name for opening a connection.
	// For SQLite this is the file path; for PostgreSQL a connection string.
	DSN(pathOrConnStr string) string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	// SQLite: "?" (ignoring index), PostgreSQL: "$1", "$2", etc.
	Placeholder(index int) string

	// QuoteColumn returns the column name quoted appropriately for the dialect.
	QuoteColumn(name string) string

	// SchemaCheckColumnSQL returns a SQL query that counts how many times a
	// column appears in a table's schema. Used for migration checks.
	SchemaCheckColumnSQL(table, column string) string

	// CreateTableSQL returns the DDL for the line_records table.
	CreateTableSQL() string

	// CreateMetaTableSQL returns the DDL for the key/value import metadata table.
	CreateMetaTableSQL() string

	// UpsertMetaSQL returns the statement that stores one metadata key.
	UpsertMetaSQL() string

	// CreateIndexSQL returns DDL to create an index on a table column.
	CreateIndexSQL(indexName, tableName, column string) string

	// DropIndexSQL returns DDL to drop an index by name.
	DropIndexSQL(indexName string) string
}
