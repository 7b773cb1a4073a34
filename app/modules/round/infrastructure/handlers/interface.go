package roundhandlers

import (
	"context"

	roundevents "github.com/Back-Nine-Social-Club/fairway-bot/events/round"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils/handlerwrapper"
)

// Handlers defines the interface for round event handlers.
type Handlers interface {
	// HandleOutingLaunchRequested handles requests to launch an outing.
	HandleOutingLaunchRequested(ctx context.Context, payload *roundevents.OutingLaunchRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
