package sqlite

import (
	"context"
	"database/sql"

	"github.com/trumully/dynamo/internal/domain"
	"github.com/trumully/dynamo/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `user_id, is_blocked, last_interaction, user_tz`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		isBlocked       int
		lastInteraction string
	)

	err := scanner.Scan(
		&u.ID,
		&isBlocked,
		&lastInteraction,
		&u.Timezone,
	)
	if err != nil {
		return nil, err
	}

	u.Blocked = isBlocked != 0

	u.LastInteraction, err = parseTime(lastInteraction)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// EnsureUser returns the row for userID, creating it with defaults on first
// contact. The no-op assignment makes the upsert hit the DO UPDATE branch so
// RETURNING yields the existing row as well as a fresh one.
func (s *Store) EnsureUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO discord_users (user_id)
		VALUES (?)
		ON CONFLICT (user_id)
		DO UPDATE SET user_tz=user_tz
		RETURNING `+userColumns,
		userID)

	return scanUser(row)
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM discord_users WHERE user_id = ?`, userID)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes a user row. The schema cascades the delete to the
// user's tags. Returns store.ErrNotFound if the user does not exist.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM discord_users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CountUsers returns the number of known users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM discord_users`).Scan(&n)
	return n, err
}

// SetTimezone stores the user's zone name, creating the row if needed.
func (s *Store) SetTimezone(ctx context.Context, userID int64, tz string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discord_users (user_id, user_tz)
		VALUES (?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET user_tz=excluded.user_tz`,
		userID, tz)
	return err
}

// SetBlocked flips the block flag, creating the row if needed.
func (s *Store) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discord_users (user_id, is_blocked)
		VALUES (?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET is_blocked=excluded.is_blocked`,
		userID, boolToInt(blocked))
	return err
}

// IsBlocked reports whether the user is blocked. Unknown users are not
// blocked; no row is created.
func (s *Store) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	var blocked int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM discord_users
			WHERE user_id = ? AND is_blocked LIMIT 1
		)`,
		userID).Scan(&blocked)
	if err != nil {
		return false, err
	}
	return blocked != 0, nil
}

// TouchLastInteraction stamps last_interaction with the database's current
// time for every given user, creating rows on first contact. Runs in one
// transaction; the caller batches IDs so this is a single WAL commit.
func (s *Store) TouchLastInteraction(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO discord_users (user_id, last_interaction)
		VALUES (?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id)
		DO UPDATE SET last_interaction=excluded.last_interaction`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range userIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}
