// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/codepal/internal/domain"
)

// Stats summarizes the database for maintenance reporting.
type Stats struct {
	Sessions  int64
	Messages  int64
	SizeBytes int64
	Oldest    time.Time // zero when there are no messages
	Newest    time.Time // zero when there are no messages
}

// Repository defines the persistence contract for profiles, sessions and
// messages. A successful return from any write means the data is already
// durable.
type Repository interface {
	// EnsureUser returns the profile row for username, creating it if absent.
	EnsureUser(ctx context.Context, username string) (*domain.User, error)

	// UpdateUserConfig persists the API key and model for a profile and
	// marks it configured.
	UpdateUserConfig(ctx context.Context, userID int64, apiKey, model string) error

	// UpdateUserModel persists only the model selection.
	UpdateUserModel(ctx context.Context, userID int64, model string) error

	// CreateSession persists a new conversation session.
	CreateSession(ctx context.Context, userID int64, title, model string) (*domain.Session, error)

	// GetSession retrieves a session by id. Returns nil when absent.
	GetSession(ctx context.Context, id int64) (*domain.Session, error)

	// ListSessions returns up to limit sessions for a profile, most recently
	// updated first.
	ListSessions(ctx context.Context, userID int64, limit int) ([]*domain.Session, error)

	// AppendMessage appends one immutable message to its session and bumps
	// the session's updated_at in the same transaction.
	AppendMessage(ctx context.Context, msg *domain.Message) (int64, error)

	// ListMessages returns a session's messages in creation order.
	ListMessages(ctx context.Context, sessionID int64) ([]*domain.Message, error)

	// CountMessages returns the number of messages in a session.
	CountMessages(ctx context.Context, sessionID int64) (int64, error)

	// DeleteSession removes a session and all its messages.
	DeleteSession(ctx context.Context, id int64) error

	// PurgeSessions removes every session and message, reporting how many of
	// each were deleted.
	PurgeSessions(ctx context.Context) (sessions, messages int64, err error)

	// Stats reports row counts and database size.
	Stats(ctx context.Context) (*Stats, error)

	// Vacuum rebuilds the database file, reclaiming free pages.
	Vacuum(ctx context.Context) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
