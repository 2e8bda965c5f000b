package dialect

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ColumnExists reports whether a column exists on a table.
//
//	Postgres: queries information_schema.columns.
//	SQLite:   reads PRAGMA table_info.
func ColumnExists(db *sqlx.DB, table, column string) (bool, error) {
	if IsPostgres(db.DriverName()) {
		var count int
		err := db.Get(&count,
			`SELECT COUNT(*) FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`,
			table, column)
		if err != nil {
			return false, fmt.Errorf("check column %s.%s: %w", table, column, err)
		}
		return count > 0, nil
	}

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// EnsureColumn adds a column to a table if it doesn't exist.
func EnsureColumn(db *sqlx.DB, table, column, definition string) error {
	exists, err := ColumnExists(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
