// Package sqlite provides the SQL-backed mission repository. Despite the
// name it runs against both SQLite and Postgres connections; driver
// differences go through the dialect package.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/missionctl/missionctl/internal/db"
	"github.com/missionctl/missionctl/internal/db/dialect"
)

// Repository provides SQL-backed mission storage operations.
type Repository struct {
	db   *sqlx.DB // writer
	ro   *sqlx.DB // reader (read-only pool)
	pool *db.Pool // set when the repository owns its connections
}

// New creates a repository backed by its own SQLite pool at dbPath.
func New(dbPath string) (*Repository, error) {
	pool, err := db.OpenSQLitePool(dbPath)
	if err != nil {
		return nil, err
	}
	return newRepository(pool.Writer(), pool.Reader(), pool)
}

// NewWithDB creates a repository with existing database connections (shared ownership).
func NewWithDB(writer, reader *sqlx.DB) (*Repository, error) {
	return newRepository(writer, reader, nil)
}

func newRepository(writer, reader *sqlx.DB, pool *db.Pool) (*Repository, error) {
	repo := &Repository{db: writer, ro: reader, pool: pool}
	if err := repo.initSchema(); err != nil {
		if pool != nil {
			if closeErr := pool.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to close database after schema error: %w", closeErr)
			}
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

// Close closes the database connections when the repository owns them.
func (r *Repository) Close() error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Close()
}

// DB returns the underlying writer sql.DB instance for shared access
func (r *Repository) DB() *sql.DB {
	return r.db.DB
}

// initSchema creates the database tables if they don't exist
func (r *Repository) initSchema() error {
	if err := r.initCoreSchema(); err != nil {
		return err
	}
	if err := r.initFeedSchema(); err != nil {
		return err
	}
	if err := r.runMigrations(); err != nil {
		return err
	}
	return r.ensureIndexes()
}

// initCoreSchema creates the agents and tasks tables.
// Agents come first so the task foreign key resolves on Postgres.
func (r *Repository) initCoreSchema() error {
	ts := dialect.TimestampType(r.db.DriverName())
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		description TEXT DEFAULT '',
		specialties TEXT DEFAULT '[]',
		backend TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'IDLE',
		current_task_id TEXT,
		created_at %[1]s NOT NULL,
		updated_at %[1]s NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'TODO',
		priority TEXT NOT NULL DEFAULT 'medium',
		assigned_agent_id TEXT,
		metadata TEXT DEFAULT '{}',
		created_at %[1]s NOT NULL,
		updated_at %[1]s NOT NULL,
		started_at %[1]s,
		completed_at %[1]s,
		FOREIGN KEY (assigned_agent_id) REFERENCES agents(id) ON DELETE SET NULL
	);
	`, ts)

	_, err := r.db.Exec(schema)
	return err
}

// initFeedSchema creates the activities and documents tables.
func (r *Repository) initFeedSchema() error {
	ts := dialect.TimestampType(r.db.DriverName())
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		agent_id TEXT,
		task_id TEXT,
		created_at %[1]s NOT NULL,
		FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE SET NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT DEFAULT '',
		type TEXT NOT NULL DEFAULT 'NOTE',
		author_agent_id TEXT,
		task_id TEXT,
		tags TEXT DEFAULT '[]',
		created_at %[1]s NOT NULL,
		updated_at %[1]s NOT NULL,
		FOREIGN KEY (author_agent_id) REFERENCES agents(id) ON DELETE SET NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE SET NULL
	);
	`, ts)

	_, err := r.db.Exec(schema)
	return err
}

// runMigrations applies additive column changes for databases created by
// earlier versions. Fresh databases already have the columns, so each is
// added only when missing.
func (r *Repository) runMigrations() error {
	if err := dialect.EnsureColumn(r.db, "agents", "backend", "TEXT DEFAULT ''"); err != nil {
		return err
	}
	return dialect.EnsureColumn(r.db, "documents", "tags", "TEXT DEFAULT '[]'")
}

// ensureIndexes creates lookup indexes for the hot query paths.
func (r *Repository) ensureIndexes() error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_agent_id ON tasks(assigned_agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_task_id ON activities(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_task_id ON documents(task_id)`,
	}
	for _, index := range indexes {
		if _, err := r.db.Exec(index); err != nil {
			return err
		}
	}
	return nil
}
