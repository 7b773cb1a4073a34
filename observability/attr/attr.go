// Package attr provides slog attribute helpers so call sites stay terse and
// consistently typed across services and handlers.
package attr

import (
	"context"
	"log/slog"
	"time"

	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type correlationIDKey struct{}

// String returns a string slog attribute.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int returns an int slog attribute.
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

// Int64 returns an int64 slog attribute.
func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

// Float64 returns a float64 slog attribute.
func Float64(key string, value float64) slog.Attr {
	return slog.Float64(key, value)
}

// Bool returns a bool slog attribute.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Any returns a slog attribute for an arbitrary value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Time returns a time slog attribute.
func Time(key string, value time.Time) slog.Attr {
	return slog.Time(key, value)
}

// Duration returns a duration slog attribute.
func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// Error returns an "error" slog attribute, tolerating nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// RoundID returns a slog attribute for a round identifier.
func RoundID(key string, id sharedtypes.RoundID) slog.Attr {
	return slog.String(key, id.String())
}

// OutingID returns a slog attribute for an outing identifier.
func OutingID(key string, id sharedtypes.OutingID) slog.Attr {
	return slog.String(key, id.String())
}

// PlayerID returns a slog attribute for a player identifier.
func PlayerID(key string, id sharedtypes.PlayerID) slog.Attr {
	return slog.String(key, string(id))
}

// WithCorrelationID stores a correlation ID on the context for later
// extraction by ExtractCorrelationID.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// ExtractCorrelationID returns a correlation_id attribute from the context,
// or an empty one when no correlation ID was propagated.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok && v != "" {
		return slog.String("correlation_id", v)
	}
	return slog.String("correlation_id", "")
}

// CorrelationIDFromMsg reads the watermill correlation ID metadata off a message.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}
