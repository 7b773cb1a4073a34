package roundtypes

import (
	"time"

	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
)

// RoundStatus represents the lifecycle state of a round.
type RoundStatus string

const (
	RoundStatusLive      RoundStatus = "live"
	RoundStatusAbandoned RoundStatus = "abandoned"
	// RoundStatusComplete is set exclusively by the scoring subsystem; the
	// lifecycle code only ever reads it.
	RoundStatusComplete RoundStatus = "complete"
)

// AbandonReasonStale marks rounds abandoned by the stale sweeper.
const AbandonReasonStale = "stale_cleanup"

// TransferStatus represents the state of a marker transfer request.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusApproved TransferStatus = "approved"
	TransferStatusRejected TransferStatus = "rejected"
)

// Player is a denormalized snapshot of a roster entry embedded in a round.
// It is copied at launch time and never references live roster state.
type Player struct {
	PlayerID      sharedtypes.PlayerID `json:"player_id"`
	DisplayName   string               `json:"display_name"`
	IsMarker      bool                 `json:"is_marker"`
	IsGhost       bool                 `json:"is_ghost"`
	HandicapIndex *float64             `json:"handicap_index,omitempty"`
	PlayingHcp    *int                 `json:"playing_hcp,omitempty"`
	TeeID         string               `json:"tee_id,omitempty"`
}

// TransferRequest is a pending bid by a non-marker player to take over
// marker duties. RequestedAt doubles as the compare-and-swap key when the
// reconciler resolves an orphaned request.
type TransferRequest struct {
	RequestedBy     sharedtypes.PlayerID `json:"requested_by"`
	RequestedByName string               `json:"requested_by_name"`
	Status          TransferStatus       `json:"status"`
	RequestedAt     time.Time            `json:"requested_at"`
	ExpiresAt       time.Time            `json:"expires_at"`
}

// HoleDetail is one hole of the canonical layout for a round, taken from the
// marker's tee data at launch.
type HoleDetail struct {
	Number      int `json:"number"`
	Par         int `json:"par"`
	Yardage     int `json:"yardage"`
	StrokeIndex int `json:"stroke_index"`
}

// RosterEntry is one player in a launch request roster, before grouping.
type RosterEntry struct {
	PlayerID      sharedtypes.PlayerID `json:"player_id"`
	DisplayName   string               `json:"display_name"`
	IsGhost       bool                 `json:"is_ghost"`
	HandicapIndex *float64             `json:"handicap_index,omitempty"`
	PlayingHcp    *int                 `json:"playing_hcp,omitempty"`
	TeeID         string               `json:"tee_id,omitempty"`
	Holes         []HoleDetail         `json:"holes,omitempty"`
}

// GroupRequest is one group in a launch request.
type GroupRequest struct {
	GroupID      sharedtypes.GroupID    `json:"group_id"`
	GroupName    string                 `json:"group_name"`
	PlayerIDs    []sharedtypes.PlayerID `json:"player_ids"`
	MarkerID     sharedtypes.PlayerID   `json:"marker_id"`
	StartingHole int                    `json:"starting_hole"`
}

// OutingGroup is the resolved form of a group stored on the outing, carrying
// the round id assigned at launch.
type OutingGroup struct {
	GroupID   sharedtypes.GroupID    `json:"group_id"`
	GroupName string                 `json:"group_name"`
	PlayerIDs []sharedtypes.PlayerID `json:"player_ids"`
	MarkerID  sharedtypes.PlayerID   `json:"marker_id"`
	RoundID   sharedtypes.RoundID    `json:"round_id"`
	Status    RoundStatus            `json:"status"`
}

// OutingStatus represents the lifecycle state of an outing.
type OutingStatus string

const (
	OutingStatusActive   OutingStatus = "active"
	OutingStatusComplete OutingStatus = "complete"
)

// LaunchRequest is the input to the launch operation.
type LaunchRequest struct {
	ParentType  string               `json:"parent_type"`
	ParentID    string               `json:"parent_id,omitempty"`
	CourseID    string               `json:"course_id"`
	CourseName  string               `json:"course_name"`
	HoleCount   int                  `json:"hole_count"`
	Format      string               `json:"format"`
	GroupSize   int                  `json:"group_size"`
	TeeTime     string               `json:"tee_time,omitempty"`
	Roster      []RosterEntry        `json:"roster"`
	Groups      []GroupRequest       `json:"groups"`
	OrganizerID sharedtypes.PlayerID `json:"organizer_id"`
}

// LaunchResult is the output of the launch operation.
type LaunchResult struct {
	OutingID         sharedtypes.OutingID  `json:"outing_id"`
	RoundIDs         []sharedtypes.RoundID `json:"round_ids"`
	OrganizerRoundID sharedtypes.RoundID   `json:"organizer_round_id"`
	LaunchedAt       time.Time             `json:"launched_at"`
}

// ReconcileReport summarizes one reconciler run.
type ReconcileReport struct {
	Swept        int           `json:"swept"`
	Resolved     int           `json:"resolved"`
	Purged       int           `json:"purged"`
	ChildrenGone int           `json:"children_deleted"`
	PassErrors   int           `json:"pass_errors"`
	Duration     time.Duration `json:"duration"`
}
