package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/trumully/dynamo/internal/domain"
	"github.com/trumully/dynamo/internal/store"
)

// makeTestUser ensures a user row exists so tag inserts pass the FK check.
func makeTestUser(t *testing.T, s *Store, userID int64) {
	t.Helper()
	if _, err := s.EnsureUser(context.Background(), userID); err != nil {
		t.Fatalf("ensure user %d: %v", userID, err)
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)

	tag := &domain.Tag{UserID: 1, Name: "greeting", Content: "hello there"}
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTag(ctx, 1, "greeting")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}

	// Verify fields.
	if got.UserID != 1 {
		t.Errorf("UserID: got %d, want 1", got.UserID)
	}
	if got.Name != "greeting" {
		t.Errorf("Name: got %q", got.Name)
	}
	if got.Content != "hello there" {
		t.Errorf("Content: got %q", got.Content)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to the current timestamp")
	}
	if d := time.Since(got.CreatedAt); d < 0 || d > time.Minute {
		t.Errorf("CreatedAt not near now: %v", got.CreatedAt)
	}
}

func TestCreateTagRequiresExistingUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No discord_users row for user 1: the FK must reject the insert.
	tag := &domain.Tag{UserID: 1, Name: "orphan", Content: "no owner"}
	err := s.CreateTag(ctx, tag)
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateTagDuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)

	tag := &domain.Tag{UserID: 1, Name: "dup", Content: "first"}
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	// (user_id, tag_name) is the primary key; a second insert conflicts.
	again := &domain.Tag{UserID: 1, Name: "dup", Content: "second"}
	if err := s.CreateTag(ctx, again); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// A different user may reuse the name.
	makeTestUser(t, s, 2)
	other := &domain.Tag{UserID: 2, Name: "dup", Content: "mine"}
	if err := s.CreateTag(ctx, other); err != nil {
		t.Fatalf("CreateTag for other user: %v", err)
	}
}

func TestUpsertTagReplacesContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)

	if err := s.UpsertTag(ctx, 1, "note", "v1"); err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}
	if err := s.UpsertTag(ctx, 1, "note", "v2"); err != nil {
		t.Fatalf("UpsertTag (update): %v", err)
	}

	got, err := s.GetTag(ctx, 1, "note")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.Content != "v2" {
		t.Errorf("Content: got %q, want v2", got.Content)
	}

	names, err := s.ListTagNames(ctx, 1)
	if err != nil {
		t.Fatalf("ListTagNames: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("upsert must not duplicate the row: got %v", names)
	}
}

func TestUpsertTagRequiresExistingUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpsertTag(ctx, 9, "orphan", "content")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpsertTagRejectsOversizedInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)

	err := s.UpsertTag(ctx, 1, strings.Repeat("n", domain.TagNameMaxLen+1), "content")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("oversized name: expected ErrInvalidInput, got %v", err)
	}

	err = s.UpsertTag(ctx, 1, "name", strings.Repeat("c", domain.TagContentMaxLen+1))
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("oversized content: expected ErrInvalidInput, got %v", err)
	}
}

func TestGetTagNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)

	_, err := s.GetTag(ctx, 1, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)

	if err := s.UpsertTag(ctx, 1, "gone", "soon"); err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}
	if err := s.DeleteTag(ctx, 1, "gone"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if _, err := s.GetTag(ctx, 1, "gone"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := s.DeleteTag(ctx, 1, "gone"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserCascadesToTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)
	makeTestUser(t, s, 2)

	if err := s.UpsertTag(ctx, 1, "a", "1"); err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}
	if err := s.UpsertTag(ctx, 1, "b", "2"); err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}
	if err := s.UpsertTag(ctx, 2, "keep", "3"); err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}

	if err := s.DeleteUser(ctx, 1); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	names, err := s.ListTagNames(ctx, 1)
	if err != nil {
		t.Fatalf("ListTagNames: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("tags must cascade with their owner: got %v", names)
	}

	// Other users' tags are untouched.
	names, err = s.ListTagNames(ctx, 2)
	if err != nil {
		t.Fatalf("ListTagNames(2): %v", err)
	}
	if len(names) != 1 || names[0] != "keep" {
		t.Errorf("unrelated tags affected: got %v", names)
	}
}

func TestListTagNamesSortedAndNonNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)

	names, err := s.ListTagNames(ctx, 1)
	if err != nil {
		t.Fatalf("ListTagNames: %v", err)
	}
	if names == nil {
		t.Fatal("expected empty slice, got nil")
	}

	for _, name := range []string{"zebra", "apple", "mango"} {
		if err := s.UpsertTag(ctx, 1, name, "x"); err != nil {
			t.Fatalf("UpsertTag(%s): %v", name, err)
		}
	}

	names, err = s.ListTagNames(ctx, 1)
	if err != nil {
		t.Fatalf("ListTagNames: %v", err)
	}
	want := []string{"apple", "mango", "zebra"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestCountTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, 1)
	makeTestUser(t, s, 2)

	if err := s.UpsertTag(ctx, 1, "a", "1"); err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}
	if err := s.UpsertTag(ctx, 2, "a", "2"); err != nil {
		t.Fatalf("UpsertTag: %v", err)
	}

	n, err := s.CountTags(ctx)
	if err != nil {
		t.Fatalf("CountTags: %v", err)
	}
	if n != 2 {
		t.Errorf("CountTags: got %d, want 2", n)
	}
}
