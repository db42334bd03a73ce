//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"convene/pkg/domain"
	"convene/pkg/testutil/containers"
)

func TestKafkaPublisher(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx := context.Background()
	const topic = "convene.audit.test"

	pub, err := NewKafkaPublisher(ctx, []string{rp.Broker}, topic)
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	// A second connect must tolerate the topic already existing.
	pub2, err := NewKafkaPublisher(ctx, []string{rp.Broker}, topic)
	require.NoError(t, err)
	pub2.Close()

	actorID := domain.ActorID(uuid.New())
	event := Event{
		Type:      EventGuestCheckedIn,
		ActorID:   actorID,
		SubjectID: uuid.NewString(),
		At:        time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC),
		Detail:    map[string]string{"event_id": uuid.NewString()},
	}
	require.NoError(t, pub.Emit(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, actorID.String(), string(records[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event.Type, got.Type)
	assert.Equal(t, event.ActorID, got.ActorID)
	assert.Equal(t, event.SubjectID, got.SubjectID)
	assert.True(t, event.At.Equal(got.At))
	assert.Equal(t, event.Detail, got.Detail)
}
