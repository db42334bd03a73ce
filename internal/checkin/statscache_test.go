package checkin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"convene/internal/policy"
	"convene/pkg/domain"
)

func TestStatsKey(t *testing.T) {
	eventID := domain.EventID(uuid.New())
	otherEvent := domain.EventID(uuid.New())
	zoneID := domain.ZoneID(uuid.New())
	stateID := domain.StateID(uuid.New())
	b1 := domain.BranchID(uuid.New())
	b2 := domain.BranchID(uuid.New())

	t.Run("branch order does not change the key", func(t *testing.T) {
		forward := statsKey(eventID, nil, policy.Scope{BranchIDs: []domain.BranchID{b1, b2}})
		reversed := statsKey(eventID, nil, policy.Scope{BranchIDs: []domain.BranchID{b2, b1}})
		assert.Equal(t, forward, reversed)
	})

	t.Run("different jurisdictions get different keys", func(t *testing.T) {
		keys := []string{
			statsKey(eventID, nil, policy.Scope{All: true}),
			statsKey(eventID, nil, policy.Scope{StateID: &stateID}),
			statsKey(eventID, nil, policy.Scope{BranchIDs: []domain.BranchID{b1}}),
			statsKey(eventID, nil, policy.Scope{BranchIDs: []domain.BranchID{b2}}),
			statsKey(eventID, nil, policy.Scope{}),
		}
		seen := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			_, dup := seen[k]
			assert.False(t, dup, "key %q collides", k)
			seen[k] = struct{}{}
		}
	})

	t.Run("zone and event segments separate keys", func(t *testing.T) {
		scope := policy.Scope{All: true}
		assert.NotEqual(t,
			statsKey(eventID, nil, scope),
			statsKey(eventID, &zoneID, scope))
		assert.NotEqual(t,
			statsKey(eventID, nil, scope),
			statsKey(otherEvent, nil, scope))
	})

	t.Run("event keys share a scannable prefix", func(t *testing.T) {
		prefix := statsKeyPrefix + eventID.String() + ":"
		assert.True(t, len(statsKey(eventID, &zoneID, policy.Scope{All: true})) > len(prefix))
		assert.Contains(t, statsKey(eventID, &zoneID, policy.Scope{StateID: &stateID}), prefix)
		assert.Contains(t, statsKey(eventID, nil, policy.Scope{}), prefix)
	})
}
