package domain

import "time"

// Tag length limits, enforced at the command layer and mirrored here so the
// store can reject out-of-band writes.
const (
	TagNameMinLen    = 1
	TagNameMaxLen    = 20
	TagContentMinLen = 1
	TagContentMaxLen = 1000
)

// Tag is a user-owned named text snippet. Identity is (UserID, Name); tags
// are private to their owner and die with the owning user row.
type Tag struct {
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the tag fits the length limits.
func (t *Tag) Valid() bool {
	return len(t.Name) >= TagNameMinLen && len(t.Name) <= TagNameMaxLen &&
		len(t.Content) >= TagContentMinLen && len(t.Content) <= TagContentMaxLen
}
