package merchantloc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/localmart/internal/discovery/domain"
)

// Snapshot is the latest reported position for a merchant.
type Snapshot struct {
	MerchantID uuid.UUID
	Coordinate domain.Coordinate
	Updated    time.Time
}

// Store keeps the latest merchant location snapshots in memory. It implements
// domain.MerchantSource so the proximity filter can consume live positions
// directly.
type Store struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]Snapshot
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{snapshots: make(map[uuid.UUID]Snapshot)}
}

// Update stores a merchant coordinate. Invalid coordinates are dropped; the
// proximity filter would exclude them anyway and a stale valid position beats
// a fresh broken one.
func (s *Store) Update(_ context.Context, merchantID uuid.UUID, coord domain.Coordinate) {
	if !coord.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[merchantID] = Snapshot{
		MerchantID: merchantID,
		Coordinate: coord,
		Updated:    time.Now().UTC(),
	}
}

// Snapshot returns the stored snapshot for a merchant.
func (s *Store) Snapshot(_ context.Context, merchantID uuid.UUID) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[merchantID]
	return snap, ok
}

// MerchantLocations satisfies domain.MerchantSource.
func (s *Store) MerchantLocations(_ context.Context) ([]domain.MerchantLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.MerchantLocation, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, domain.MerchantLocation{MerchantID: snap.MerchantID, Coordinate: snap.Coordinate})
	}
	return out, nil
}
