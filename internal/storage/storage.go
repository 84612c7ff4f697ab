package storage

import (
	"context"
	"time"

	"ecobeehub/internal/auth"
)

// Notice is a user-facing message shown by the hub until it is removed
type Notice struct {
	Key       string    `json:"key"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage defines the interface for data persistence
type Storage interface {
	// Tokens
	auth.TokenStore

	// Notices
	AddNotice(ctx context.Context, key, message string) error
	RemoveNotices(ctx context.Context) error
	ListNotices(ctx context.Context) ([]*Notice, error)

	// Lifecycle
	Close() error
}
