// Package dialect provides SQL fragment helpers for SQLite/PostgreSQL portability.
package dialect

const (
	SQLite3 = "sqlite3"
	PGX     = "pgx"
)

// IsPostgres returns true if the driver is PostgreSQL (pgx).
func IsPostgres(driver string) bool {
	return driver == PGX
}

// TimestampType returns the column type used for timestamps in schema DDL.
func TimestampType(driver string) string {
	if IsPostgres(driver) {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}
