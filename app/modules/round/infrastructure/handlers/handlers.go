package roundhandlers

import (
	"context"
	"log/slog"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	roundevents "github.com/Back-Nine-Social-Club/fairway-bot/events/round"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// RoundHandlers implements the Handlers interface.
type RoundHandlers struct {
	service roundservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewRoundHandlers creates a new RoundHandlers instance.
func NewRoundHandlers(
	service roundservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &RoundHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleOutingLaunchRequested handles requests to launch an outing. A
// validation failure publishes a failed event with the violated
// precondition; infrastructure errors propagate so the message is retried.
func (h *RoundHandlers) HandleOutingLaunchRequested(ctx context.Context, payload *roundevents.OutingLaunchRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RoundHandlers.HandleOutingLaunchRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Outing launch requested",
		slog.String("organizer_id", string(payload.Request.OrganizerID)),
		slog.Int("roster_size", len(payload.Request.Roster)),
		slog.Int("groups", len(payload.Request.Groups)),
	)

	result, err := h.service.LaunchOuting(ctx, payload.Request)
	if err != nil {
		if roundservice.IsValidationError(err) {
			h.logger.WarnContext(ctx, "Launch request rejected",
				slog.String("organizer_id", string(payload.Request.OrganizerID)),
				slog.String("reason", err.Error()),
			)
			return []handlerwrapper.Result{{
				Topic: roundevents.OutingLaunchFailedV1,
				Payload: &roundevents.OutingLaunchFailedPayloadV1{
					Reason: err.Error(),
				},
			}}, nil
		}
		return nil, err
	}

	// Dynamic ReplyTo takes precedence over the static success topic.
	replyTopic := roundevents.OutingLaunchSucceededV1
	if rt, ok := ctx.Value(handlerwrapper.CtxKeyReplyTo).(string); ok && rt != "" {
		replyTopic = rt
	}

	return []handlerwrapper.Result{{
		Topic: replyTopic,
		Payload: &roundevents.OutingLaunchSucceededPayloadV1{
			OutingID:         result.OutingID,
			RoundIDs:         result.RoundIDs,
			OrganizerRoundID: result.OrganizerRoundID,
			LaunchedAt:       result.LaunchedAt,
		},
	}}, nil
}
