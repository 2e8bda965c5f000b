package db

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/missionctl/missionctl/internal/db/dialect"
)

// OpenPostgresPool opens a PostgreSQL connection via pgx and returns it as a
// Pool. pgx pools internally, so the writer and reader share one *sqlx.DB.
// If maxConns or minConns are 0, they default to 25 and 5 respectively.
func OpenPostgresPool(dsn string, maxConns, minConns int) (*Pool, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 25
	}
	if minConns <= 0 {
		minConns = 5
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(minConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	conn := sqlx.NewDb(db, dialect.PGX)
	return NewPool(conn, conn), nil
}
