package eventbus

import (
	"context"
	"fmt"

	notificationevents "github.com/Back-Nine-Social-Club/fairway-bot/events/notification"
	roundevents "github.com/Back-Nine-Social-Club/fairway-bot/events/round"
)

// Stream names. One stream per bounded context keeps retention policies
// independent.
const (
	OutingStream       = "outing"
	NotificationStream = "notification"
)

// ProvisionStreams creates the streams this service publishes to.
func ProvisionStreams(ctx context.Context, bus EventBus) error {
	if err := bus.CreateStream(ctx, OutingStream,
		roundevents.OutingLaunchRequestedV1,
		roundevents.OutingLaunchSucceededV1,
		roundevents.OutingLaunchFailedV1,
	); err != nil {
		return fmt.Errorf("failed to provision %s stream: %w", OutingStream, err)
	}

	if err := bus.CreateStream(ctx, NotificationStream,
		notificationevents.DispatchRequestedV1,
	); err != nil {
		return fmt.Errorf("failed to provision %s stream: %w", NotificationStream, err)
	}

	return nil
}
