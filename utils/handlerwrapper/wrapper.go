// Package handlerwrapper adapts typed handler functions to watermill's
// message.HandlerFunc, centralizing unmarshalling, tracing, and correlation
// ID propagation.
package handlerwrapper

import (
	"context"
	"log/slog"

	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

// CtxKeyReplyTo carries a dynamic reply topic supplied by the requester.
const CtxKeyReplyTo ctxKey = "reply_to"

// Result is one outbound message produced by a typed handler.
type Result struct {
	Topic   string
	Payload any
}

// ReturningMetrics records handler-level outcomes. A nil value disables
// recording.
type ReturningMetrics interface {
	RecordHandlerAttempt(ctx context.Context, handler string)
	RecordHandlerSuccess(ctx context.Context, handler string)
	RecordHandlerFailure(ctx context.Context, handler string)
}

// WrapTransformingTyped wraps a typed handler into a watermill HandlerFunc.
// The inbound payload is unmarshalled into T; every returned Result becomes
// one outbound message carrying the inbound correlation ID.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	helpers utils.Helpers,
	metrics ReturningMetrics,
	handler func(ctx context.Context, payload *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := msg.Context()
		if corrID := middleware.MessageCorrelationID(msg); corrID != "" {
			ctx = attr.WithCorrelationID(ctx, corrID)
		}
		if replyTo := msg.Metadata.Get("reply_to"); replyTo != "" {
			ctx = context.WithValue(ctx, CtxKeyReplyTo, replyTo)
		}

		ctx, span := tracer.Start(ctx, handlerName)
		defer span.End()

		if metrics != nil {
			metrics.RecordHandlerAttempt(ctx, handlerName)
		}

		payload := new(T)
		if err := helpers.UnmarshalPayload(msg, payload); err != nil {
			// A malformed payload can never succeed on redelivery; drop it.
			logger.ErrorContext(ctx, "Dropping malformed message",
				attr.String("handler", handlerName),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			return nil, nil
		}

		outputs, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler returned error",
				attr.String("handler", handlerName),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			span.RecordError(err)
			return nil, err
		}

		messages := make([]*message.Message, 0, len(outputs))
		for _, out := range outputs {
			outMsg, err := helpers.CreateResultMessage(msg, out.Payload, out.Topic)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to build result message",
					attr.String("handler", handlerName),
					attr.String("topic", out.Topic),
					attr.Error(err),
				)
				if metrics != nil {
					metrics.RecordHandlerFailure(ctx, handlerName)
				}
				return nil, err
			}
			messages = append(messages, outMsg)
		}

		if metrics != nil {
			metrics.RecordHandlerSuccess(ctx, handlerName)
		}
		return messages, nil
	}
}
