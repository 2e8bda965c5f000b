package dialect

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

func TestIsPostgres(t *testing.T) {
	if !IsPostgres(PGX) {
		t.Error("expected pgx to be postgres")
	}
	if IsPostgres(SQLite3) {
		t.Error("expected sqlite3 to not be postgres")
	}
}

func TestTimestampType(t *testing.T) {
	if TimestampType(SQLite3) != "TIMESTAMP" {
		t.Errorf("sqlite: got %q", TimestampType(SQLite3))
	}
	if TimestampType(PGX) != "TIMESTAMPTZ" {
		t.Errorf("pgx: got %q", TimestampType(PGX))
	}
}

func TestEnsureColumn_SQLite(t *testing.T) {
	tmpDir := t.TempDir()
	rawDB, err := sql.Open("sqlite3", filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlxDB := sqlx.NewDb(rawDB, SQLite3)
	t.Cleanup(func() { _ = sqlxDB.Close() })

	_, err = sqlxDB.Exec(`CREATE TABLE test_migrate (id INTEGER PRIMARY KEY, name TEXT)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	exists, err := ColumnExists(sqlxDB, "test_migrate", "name")
	if err != nil {
		t.Fatalf("column exists: %v", err)
	}
	if !exists {
		t.Error("expected name column to exist")
	}

	exists, err = ColumnExists(sqlxDB, "test_migrate", "status")
	if err != nil {
		t.Fatalf("column exists: %v", err)
	}
	if exists {
		t.Error("expected status column to be missing")
	}

	if err := EnsureColumn(sqlxDB, "test_migrate", "status", "TEXT DEFAULT ''"); err != nil {
		t.Fatalf("ensure column: %v", err)
	}
	// Idempotent on a column that now exists.
	if err := EnsureColumn(sqlxDB, "test_migrate", "status", "TEXT DEFAULT ''"); err != nil {
		t.Fatalf("ensure column again: %v", err)
	}

	exists, err = ColumnExists(sqlxDB, "test_migrate", "status")
	if err != nil {
		t.Fatalf("column exists: %v", err)
	}
	if !exists {
		t.Error("expected status column after EnsureColumn")
	}

	_, err = sqlxDB.Exec(`INSERT INTO test_migrate (name, status) VALUES ('task', 'open')`)
	if err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
}
