// Package notifications publishes notification dispatch requests onto the
// event bus for the delivery tier to render and send.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	"github.com/Back-Nine-Social-Club/fairway-bot/eventbus"
	notificationevents "github.com/Back-Nine-Social-Club/fairway-bot/events/notification"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils"
)

// EventBusDispatcher publishes one message per notification.
type EventBusDispatcher struct {
	bus     eventbus.EventBus
	helpers utils.Helpers
	logger  *slog.Logger
}

// NewEventBusDispatcher creates a new EventBusDispatcher.
func NewEventBusDispatcher(bus eventbus.EventBus, helpers utils.Helpers, logger *slog.Logger) *EventBusDispatcher {
	return &EventBusDispatcher{
		bus:     bus,
		helpers: helpers,
		logger:  logger,
	}
}

var _ roundservice.Dispatcher = (*EventBusDispatcher)(nil)

// Dispatch publishes the notification. The payload is forwarded opaquely;
// rendering is the delivery tier's job.
func (d *EventBusDispatcher) Dispatch(ctx context.Context, n roundservice.Notification) error {
	payload := &notificationevents.DispatchRequestedPayloadV1{
		Type:        n.Type,
		RecipientID: n.RecipientID,
		Payload:     n.Payload,
	}

	msg, err := d.helpers.CreateNewMessage(payload, notificationevents.DispatchRequestedV1)
	if err != nil {
		return fmt.Errorf("failed to build notification message: %w", err)
	}
	msg.SetContext(ctx)

	if err := d.bus.Publish(notificationevents.DispatchRequestedV1, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	d.logger.DebugContext(ctx, "Notification dispatch requested",
		attr.String("type", n.Type),
		attr.PlayerID("recipient_id", n.RecipientID),
	)
	return nil
}
