package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify synchronous=NORMAL (1).
	var synchronous int
	err = s.db.QueryRow("PRAGMA synchronous").Scan(&synchronous)
	if err != nil {
		t.Fatalf("query synchronous: %v", err)
	}
	if synchronous != 1 {
		t.Errorf("expected synchronous=1, got %d", synchronous)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{"discord_users", "user_tags"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestPragmasApplyToEveryPooledConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Pin four connections at once, the pool's maximum, so each one is a
	// distinct SQLite connection.
	conns := make([]*sql.Conn, 0, 4)
	for range 4 {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			t.Fatalf("acquire conn: %v", err)
		}
		conns = append(conns, conn)
	}
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	for idx, conn := range conns {
		var fk int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn %d: query foreign_keys: %v", idx, err)
		}
		if fk != 1 {
			t.Errorf("conn %d: expected foreign_keys=1, got %d", idx, fk)
		}

		// The FK constraint must hold on this specific connection.
		_, err := conn.ExecContext(ctx,
			"INSERT INTO user_tags (user_id, tag_name, content) VALUES (?, ?, ?)",
			999, "orphan", "content")
		if err == nil {
			t.Errorf("conn %d: orphan tag insert succeeded, want FK violation", idx)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	// Close runs the optimize pragmas; it must not error on a fresh store.
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	// Re-opening the same file re-applies the schema without error.
	s, err = Open(dbPath, logger)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2025-06-01 12:30:45")
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if got.Year() != 2025 || got.Month() != 6 || got.Day() != 1 {
		t.Errorf("date: got %v", got)
	}
	if got.Hour() != 12 || got.Minute() != 30 || got.Second() != 45 {
		t.Errorf("time: got %v", got)
	}
	if got.Location() != nil && got.Location().String() != "UTC" {
		t.Errorf("location: got %v, want UTC", got.Location())
	}
}
