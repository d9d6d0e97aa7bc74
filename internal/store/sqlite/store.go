// Package sqlite implements the store interface on a local SQLite database.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for dynamo.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// connPragmas rides on the DSN so the driver applies the pragmas to every
// pooled connection. A plain db.Exec would only reach whichever connection
// the pool hands out, leaving foreign keys off on the rest.
const connPragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)"

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	// Apply schema.
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Close runs the close-time pragmas and closes the database. The bounded
// optimize keeps the query planner statistics fresh without an unbounded
// ANALYZE on shutdown.
func (s *Store) Close() error {
	for _, pragma := range []string{
		"PRAGMA analysis_limit=400",
		"PRAGMA optimize",
	} {
		if _, err := s.db.Exec(pragma); err != nil {
			s.logger.Warn("close-time pragma failed", "pragma", pragma, "error", err)
		}
	}
	return s.db.Close()
}

// sqliteTimeLayout is the format CURRENT_TIMESTAMP produces. SQLite writes
// these values in UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// parseTime parses a CURRENT_TIMESTAMP string back to a UTC time.Time.
func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
