package roundservice

import (
	"context"
	"time"

	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
)

// Notification is one message handed to the delivery tier. Payload is opaque
// to this module.
type Notification struct {
	Type        string
	RecipientID sharedtypes.PlayerID
	Payload     map[string]any
}

// Dispatcher delivers notifications. Implementations must be safe for
// best-effort use: the launcher logs and swallows every returned error.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Clock abstracts wall-clock reads so threshold boundaries are testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns the wall clock.
func NewRealClock() Clock { return realClock{} }
