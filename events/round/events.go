// Package roundevents defines the versioned topics and payloads for the
// round module's message surface.
package roundevents

import (
	"time"

	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
)

// Topic constants. Version suffixes are part of the contract; consumers pin
// to a version and new shapes get a new suffix.
const (
	OutingLaunchRequestedV1 = "outing.launch.requested.v1"
	OutingLaunchSucceededV1 = "outing.launch.succeeded.v1"
	OutingLaunchFailedV1    = "outing.launch.failed.v1"
)

// OutingLaunchRequestedPayloadV1 asks the round module to launch an outing.
type OutingLaunchRequestedPayloadV1 struct {
	Request roundtypes.LaunchRequest `json:"request"`
}

// OutingLaunchSucceededPayloadV1 reports a successful launch.
type OutingLaunchSucceededPayloadV1 struct {
	OutingID         sharedtypes.OutingID  `json:"outing_id"`
	RoundIDs         []sharedtypes.RoundID `json:"round_ids"`
	OrganizerRoundID sharedtypes.RoundID   `json:"organizer_round_id"`
	LaunchedAt       time.Time             `json:"launched_at"`
}

// OutingLaunchFailedPayloadV1 reports a failed launch. Reason carries the
// specific violated precondition for validation failures.
type OutingLaunchFailedPayloadV1 struct {
	Reason string `json:"reason"`
}
