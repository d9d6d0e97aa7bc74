package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/trumully/dynamo/internal/domain"
	"github.com/trumully/dynamo/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `user_id, tag_name, content, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var tag domain.Tag

	var createdAt string

	err := scanner.Scan(
		&tag.UserID,
		&tag.Name,
		&tag.Content,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	tag.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &tag, nil
}

// CreateTag inserts a new tag without overwriting an existing one.
// Returns store.ErrAlreadyExists if the user already owns a tag with that
// name, and store.ErrInvalidInput if the owning user row does not exist.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	if !tag.Valid() {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_tags (user_id, tag_name, content)
		VALUES (?, ?, ?)`,
		tag.UserID, tag.Name, tag.Content)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

// UpsertTag writes a tag, replacing the content if the user already owns a
// tag with that name. Returns store.ErrInvalidInput if the owning user row
// does not exist.
func (s *Store) UpsertTag(ctx context.Context, userID int64, name, content string) error {
	tag := &domain.Tag{UserID: userID, Name: name, Content: content}
	if !tag.Valid() {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_tags (user_id, tag_name, content)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, tag_name)
		DO UPDATE SET content=excluded.content`,
		userID, name, content)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

// GetTag retrieves one of the user's tags by name.
// Returns store.ErrNotFound if the user owns no tag with that name.
func (s *Store) GetTag(ctx context.Context, userID int64, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM user_tags WHERE user_id = ? AND tag_name = ?`,
		userID, name)

	tag, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag removes one of the user's tags by name.
// Returns store.ErrNotFound if the user owns no tag with that name.
func (s *Store) DeleteTag(ctx context.Context, userID int64, name string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM user_tags WHERE user_id = ? AND tag_name = ?`,
		userID, name)
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

// ListTagNames returns the names of all tags the user owns, sorted.
// Returns an empty slice, not nil, when the user owns none.
func (s *Store) ListTagNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag_name FROM user_tags WHERE user_id = ? ORDER BY tag_name ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// CountTags returns the total number of stored tags across all users.
func (s *Store) CountTags(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_tags`).Scan(&n)
	return n, err
}
