package merchantloc_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/merchantloc"
)

func TestStoreUpdateAndSnapshot(t *testing.T) {
	store := merchantloc.NewStore()
	ctx := context.Background()
	merchantID := uuid.New()

	_, ok := store.Snapshot(ctx, merchantID)
	require.False(t, ok)

	coord := domain.Coordinate{Lat: 34.0522, Lng: -118.2437}
	store.Update(ctx, merchantID, coord)

	snap, ok := store.Snapshot(ctx, merchantID)
	require.True(t, ok)
	require.Equal(t, merchantID, snap.MerchantID)
	require.Equal(t, coord, snap.Coordinate)
	require.False(t, snap.Updated.IsZero())

	// Latest update wins.
	moved := domain.Coordinate{Lat: 34.1, Lng: -118.3}
	store.Update(ctx, merchantID, moved)
	snap, _ = store.Snapshot(ctx, merchantID)
	require.Equal(t, moved, snap.Coordinate)
}

func TestStoreDropsInvalidCoordinates(t *testing.T) {
	store := merchantloc.NewStore()
	ctx := context.Background()
	merchantID := uuid.New()

	store.Update(ctx, merchantID, domain.Coordinate{Lat: 120, Lng: 0})
	_, ok := store.Snapshot(ctx, merchantID)
	require.False(t, ok)
}

func TestStoreMerchantLocations(t *testing.T) {
	store := merchantloc.NewStore()
	ctx := context.Background()

	locations, err := store.MerchantLocations(ctx)
	require.NoError(t, err)
	require.Empty(t, locations)

	a, b := uuid.New(), uuid.New()
	store.Update(ctx, a, domain.Coordinate{Lat: 1, Lng: 1})
	store.Update(ctx, b, domain.Coordinate{Lat: 2, Lng: 2})

	locations, err = store.MerchantLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	ids := map[uuid.UUID]bool{locations[0].MerchantID: true, locations[1].MerchantID: true}
	require.True(t, ids[a])
	require.True(t, ids[b])
}
