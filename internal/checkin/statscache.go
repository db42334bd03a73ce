package checkin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"convene/internal/policy"
	"convene/pkg/domain"
)

const (
	statsKeyPrefix = "checkin:stats:"

	// invalidateScanCount bounds each SCAN page when sweeping an event's keys.
	invalidateScanCount = 64
)

// StatsCache keeps event statistics in Redis for a short TTL so dashboard
// polling doesn't hammer the guest store. Entries are keyed per event, zone,
// and jurisdiction, so two actors with different jurisdictions never read
// each other's numbers. A check-in sweeps every entry for its event.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// scopeDigest folds a jurisdiction scope into a short stable cache-key
// segment. Branch sets are sorted first so the same set always digests the
// same way regardless of resolution order.
func scopeDigest(scope policy.Scope) string {
	switch {
	case scope.All:
		return "all"
	case scope.StateID != nil:
		return "state:" + scope.StateID.String()
	case len(scope.BranchIDs) > 0:
		ids := make([]string, len(scope.BranchIDs))
		for i, b := range scope.BranchIDs {
			ids[i] = b.String()
		}
		sort.Strings(ids)
		sum := sha256.Sum256([]byte(strings.Join(ids, ",")))
		return "branches:" + hex.EncodeToString(sum[:8])
	default:
		return "none"
	}
}

func statsKey(eventID domain.EventID, zoneID *domain.ZoneID, scope policy.Scope) string {
	zone := "all"
	if zoneID != nil {
		zone = zoneID.String()
	}
	return statsKeyPrefix + eventID.String() + ":" + zone + ":" + scopeDigest(scope)
}

// Get returns the cached statistics, or (nil, nil) on a miss.
func (c *StatsCache) Get(ctx context.Context, eventID domain.EventID, zoneID *domain.ZoneID, scope policy.Scope) (*Statistics, error) {
	raw, err := c.client.Get(ctx, statsKey(eventID, zoneID, scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats Statistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Set stores the statistics under the cache TTL.
func (c *StatsCache) Set(ctx context.Context, eventID domain.EventID, zoneID *domain.ZoneID, scope policy.Scope, stats *Statistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(eventID, zoneID, scope), raw, c.ttl).Err()
}

// Invalidate drops every cached entry for the event, across all zones and
// jurisdictions, after a check-in changes the numbers.
func (c *StatsCache) Invalidate(ctx context.Context, eventID domain.EventID) error {
	iter := c.client.Scan(ctx, 0, statsKeyPrefix+eventID.String()+":*", invalidateScanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
