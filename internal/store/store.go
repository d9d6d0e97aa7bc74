// Package store defines the persistence interface for dynamo.
package store

import (
	"context"

	"github.com/trumully/dynamo/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	DeleteUser(ctx context.Context, userID int64) error
	CountUsers(ctx context.Context) (int64, error)
	SetTimezone(ctx context.Context, userID int64, tz string) error
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
	IsBlocked(ctx context.Context, userID int64) (bool, error)
	TouchLastInteraction(ctx context.Context, userIDs []int64) error

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	UpsertTag(ctx context.Context, userID int64, name, content string) error
	GetTag(ctx context.Context, userID int64, name string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, userID int64, name string) error
	ListTagNames(ctx context.Context, userID int64) ([]string, error)
	CountTags(ctx context.Context) (int64, error)
}
