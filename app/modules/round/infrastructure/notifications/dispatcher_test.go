package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	notificationevents "github.com/Back-Nine-Social-Club/fairway-bot/events/notification"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	published  map[string][]*message.Message
	publishErr error
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: map[string][]*message.Message{}}
}

func (f *fakeBus) Publish(topic string, messages ...*message.Message) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[topic] = append(f.published[topic], messages...)
	return nil
}

func (f *fakeBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBus) CreateStream(ctx context.Context, streamName string, subjects ...string) error {
	return nil
}

func (f *fakeBus) Close() error { return nil }

func TestEventBusDispatcher(t *testing.T) {
	t.Run("publishes one message on the dispatch topic", func(t *testing.T) {
		bus := newFakeBus()
		d := NewEventBusDispatcher(bus, utils.NewHelpers(), slog.Default())

		err := d.Dispatch(context.Background(), roundservice.Notification{
			Type:        notificationevents.TypeMarkerInvite,
			RecipientID: "carol",
			Payload:     map[string]any{"course_name": "Pebble Creek"},
		})
		require.NoError(t, err)

		msgs := bus.published[notificationevents.DispatchRequestedV1]
		require.Len(t, msgs, 1)

		var payload notificationevents.DispatchRequestedPayloadV1
		require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
		assert.Equal(t, notificationevents.TypeMarkerInvite, payload.Type)
		assert.Equal(t, "carol", string(payload.RecipientID))
		assert.Equal(t, "Pebble Creek", payload.Payload["course_name"])
	})

	t.Run("publish failure propagates", func(t *testing.T) {
		bus := newFakeBus()
		bus.publishErr = errors.New("nats unavailable")
		d := NewEventBusDispatcher(bus, utils.NewHelpers(), slog.Default())

		err := d.Dispatch(context.Background(), roundservice.Notification{
			Type:        notificationevents.TypePlayerInvite,
			RecipientID: "bob",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish notification")
	})
}
