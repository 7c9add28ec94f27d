package store

import (
	"context"
	"errors"

	"AgentEscrow/internal/model"
)

var (
	// ErrNotFound means no vault exists at the given (owner, session_id).
	ErrNotFound = errors.New("vault not found")
	// ErrExists means the (owner, session_id) pair is already taken.
	ErrExists = errors.New("vault already exists")
)

// Store persists vault records plus the append-only transfer and event
// journals. Commit must apply the record, its transfers, and the event as
// one atomic unit: a failed write leaves no partial mutation behind.
type Store interface {
	// Create inserts a fresh vault and its creation event atomically.
	Create(ctx context.Context, v *model.Vault, evt model.Event) error
	// Get returns the vault addressed by (owner, sessionID).
	Get(ctx context.Context, owner model.Identity, sessionID model.SessionID) (*model.Vault, error)
	// Commit applies an updated vault record, the transfers that moved
	// value for it, and the event that produced them.
	Commit(ctx context.Context, v *model.Vault, transfers []model.Transfer, evt model.Event) error
	// ListOpen returns every vault in Active or Paused status.
	ListOpen(ctx context.Context) ([]*model.Vault, error)
	// Transfers returns one session's value movements, oldest first.
	Transfers(ctx context.Context, owner model.Identity, sessionID model.SessionID) ([]model.Transfer, error)
	Close() error
}
