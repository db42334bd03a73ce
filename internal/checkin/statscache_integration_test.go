//go:build integration

package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convene/internal/policy"
	"convene/pkg/domain"
	"convene/pkg/testutil/containers"
)

func TestStatsCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	eventID := domain.EventID(uuid.New())
	zoneID := domain.ZoneID(uuid.New())
	national := policy.Scope{All: true}
	stats := &Statistics{
		TotalGuests:     40,
		CheckedInGuests: 10,
		BusGuests:       3,
		CheckInRate:     25,
		NotCheckedIn:    30,
	}

	t.Run("miss returns nil without error", func(t *testing.T) {
		cache := NewStatsCache(rc.Client, time.Minute)
		got, err := cache.Get(ctx, eventID, nil, national)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		cache := NewStatsCache(rc.Client, time.Minute)

		require.NoError(t, cache.Set(ctx, eventID, nil, national, stats))
		got, err := cache.Get(ctx, eventID, nil, national)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, *stats, *got)
	})

	t.Run("zone keys are independent of the event-wide key", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		cache := NewStatsCache(rc.Client, time.Minute)

		require.NoError(t, cache.Set(ctx, eventID, &zoneID, national, stats))
		got, err := cache.Get(ctx, eventID, nil, national)
		require.NoError(t, err)
		assert.Nil(t, got, "event-wide key should still be a miss")
	})

	t.Run("jurisdictions do not share entries", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		cache := NewStatsCache(rc.Client, time.Minute)

		branch1 := policy.Scope{BranchIDs: []domain.BranchID{domain.BranchID(uuid.New())}}
		branch2 := policy.Scope{BranchIDs: []domain.BranchID{domain.BranchID(uuid.New())}}
		branch1Stats := &Statistics{TotalGuests: 2, NotCheckedIn: 2}

		require.NoError(t, cache.Set(ctx, eventID, nil, branch1, branch1Stats))

		got, err := cache.Get(ctx, eventID, nil, branch2)
		require.NoError(t, err)
		assert.Nil(t, got, "a different branch scope must miss, not read branch1's numbers")

		got, err = cache.Get(ctx, eventID, nil, branch1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, *branch1Stats, *got)
	})

	t.Run("invalidate sweeps every entry for the event", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		cache := NewStatsCache(rc.Client, time.Minute)

		branch := policy.Scope{BranchIDs: []domain.BranchID{domain.BranchID(uuid.New())}}
		otherEvent := domain.EventID(uuid.New())

		require.NoError(t, cache.Set(ctx, eventID, nil, national, stats))
		require.NoError(t, cache.Set(ctx, eventID, &zoneID, national, stats))
		require.NoError(t, cache.Set(ctx, eventID, nil, branch, stats))
		require.NoError(t, cache.Set(ctx, otherEvent, nil, national, stats))

		require.NoError(t, cache.Invalidate(ctx, eventID))

		for _, scope := range []policy.Scope{national, branch} {
			got, err := cache.Get(ctx, eventID, nil, scope)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
		got, err := cache.Get(ctx, eventID, &zoneID, national)
		require.NoError(t, err)
		assert.Nil(t, got)

		kept, err := cache.Get(ctx, otherEvent, nil, national)
		require.NoError(t, err)
		require.NotNil(t, kept, "other events keep their entries")
	})

	t.Run("entries expire after the ttl", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		cache := NewStatsCache(rc.Client, 100*time.Millisecond)

		require.NoError(t, cache.Set(ctx, eventID, nil, national, stats))
		time.Sleep(200 * time.Millisecond)

		got, err := cache.Get(ctx, eventID, nil, national)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
