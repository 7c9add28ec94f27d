package store

import (
	"context"
	"sync"

	"AgentEscrow/internal/model"
)

type vaultKey struct {
	owner   model.Identity
	session model.SessionID
}

// MemoryStore keeps everything in process memory. Used in tests and as the
// fallback when no database path is configured.
type MemoryStore struct {
	mu        sync.Mutex
	vaults    map[vaultKey]*model.Vault
	transfers map[vaultKey][]model.Transfer
	events    []model.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vaults:    make(map[vaultKey]*model.Vault),
		transfers: make(map[vaultKey][]model.Transfer),
	}
}

func (m *MemoryStore) Create(_ context.Context, v *model.Vault, evt model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := vaultKey{v.Owner, v.SessionID}
	if _, ok := m.vaults[k]; ok {
		return ErrExists
	}
	m.vaults[k] = v.Clone()
	m.events = append(m.events, evt)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, owner model.Identity, sessionID model.SessionID) (*model.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vaults[vaultKey{owner, sessionID}]
	if !ok {
		return nil, ErrNotFound
	}
	return v.Clone(), nil
}

func (m *MemoryStore) Commit(_ context.Context, v *model.Vault, transfers []model.Transfer, evt model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := vaultKey{v.Owner, v.SessionID}
	if _, ok := m.vaults[k]; !ok {
		return ErrNotFound
	}
	m.vaults[k] = v.Clone()
	m.transfers[k] = append(m.transfers[k], transfers...)
	m.events = append(m.events, evt)
	return nil
}

func (m *MemoryStore) ListOpen(_ context.Context) ([]*model.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var open []*model.Vault
	for _, v := range m.vaults {
		if v.Status == model.StatusActive || v.Status == model.StatusPaused {
			open = append(open, v.Clone())
		}
	}
	return open, nil
}

func (m *MemoryStore) Transfers(_ context.Context, owner model.Identity, sessionID model.SessionID) ([]model.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.transfers[vaultKey{owner, sessionID}]
	out := make([]model.Transfer, len(src))
	copy(out, src)
	return out, nil
}

// Events returns every recorded event in order. Test helper.
func (m *MemoryStore) Events() []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MemoryStore) Close() error { return nil }
