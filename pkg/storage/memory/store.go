package memory

import (
	"context"
	"sync"
	"time"

	"depthwatch/pkg/storage"
)

type alertKey struct {
	runID, symbol, kind, key string
}

// Store keeps records in process memory. It is the default recorder when
// postgres is disabled.
type Store struct {
	mu     sync.Mutex
	alerts []storage.Alert
	seen   map[alertKey]struct{}
	pnl    []storage.PnL
}

func NewStore() *Store {
	return &Store{
		alerts: make([]storage.Alert, 0),
		seen:   make(map[alertKey]struct{}),
		pnl:    make([]storage.PnL, 0),
	}
}

func (m *Store) InsertAlert(_ context.Context, a storage.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := alertKey{a.RunID, a.Symbol, a.Kind, a.Key}
	if _, ok := m.seen[k]; ok {
		return storage.ErrDuplicate
	}
	m.seen[k] = struct{}{}
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *Store) InsertPnL(_ context.Context, p storage.PnL) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pnl = append(m.pnl, p)
	return nil
}

func (m *Store) Alerts() []storage.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]storage.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

func (m *Store) PnL() []storage.PnL {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]storage.PnL, len(m.pnl))
	copy(out, m.pnl)
	return out
}

// DeleteOldPnL drops samples taken before the cutoff.
func (m *Store) DeleteOldPnL(_ context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.pnl[:0]
	for _, p := range m.pnl {
		if !p.Time.Before(before) {
			kept = append(kept, p)
		}
	}
	m.pnl = kept
	return nil
}
