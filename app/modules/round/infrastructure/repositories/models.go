package rounddb

import (
	"time"

	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/uptrace/bun"
)

// Round is one scoring session for one group of players at one course.
// Players is an immutable snapshot taken at launch; the roster is never
// re-resolved after creation. OutingID is nullable because rounds are
// created first and back-referenced once the outing id is known.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID              sharedtypes.RoundID         `bun:"id,pk,type:uuid"`
	OutingID        *sharedtypes.OutingID       `bun:"outing_id,type:uuid,nullzero"`
	GroupID         sharedtypes.GroupID         `bun:"group_id,notnull"`
	GroupName       string                      `bun:"group_name,nullzero"`
	MarkerID        sharedtypes.PlayerID        `bun:"marker_id,notnull"`
	Status          roundtypes.RoundStatus      `bun:"status,notnull"`
	Players         []roundtypes.Player         `bun:"players,type:jsonb"`
	CourseID        string                      `bun:"course_id,notnull"`
	CourseName      string                      `bun:"course_name,nullzero"`
	Format          string                      `bun:"format,nullzero"`
	HoleCount       int                         `bun:"hole_count,notnull"`
	PlayingOrder    []int                       `bun:"playing_order,type:jsonb"`
	HoleDetails     []roundtypes.HoleDetail     `bun:"hole_details,type:jsonb"`
	TransferRequest *roundtypes.TransferRequest `bun:"marker_transfer_request,type:jsonb,nullzero"`
	StartedAt       time.Time                   `bun:"started_at,notnull"`
	AbandonedAt     *time.Time                  `bun:"abandoned_at,nullzero"`
	AbandonReason   string                      `bun:"abandon_reason,nullzero"`
	CreatedAt       time.Time                   `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time                   `bun:",nullzero,notnull,default:current_timestamp"`
}

// Outing is the parent grouping of rounds launched together.
type Outing struct {
	bun.BaseModel `bun:"table:outings,alias:o"`

	ID             sharedtypes.OutingID     `bun:"id,pk,type:uuid"`
	OrganizerID    sharedtypes.PlayerID     `bun:"organizer_id,notnull"`
	Status         roundtypes.OutingStatus  `bun:"status,notnull"`
	CourseID       string                   `bun:"course_id,notnull"`
	CourseName     string                   `bun:"course_name,nullzero"`
	Format         string                   `bun:"format,nullzero"`
	HoleCount      int                      `bun:"hole_count,notnull"`
	Roster         []roundtypes.RosterEntry `bun:"roster,type:jsonb"`
	Groups         []roundtypes.OutingGroup `bun:"groups,type:jsonb"`
	RoundIDs       []sharedtypes.RoundID    `bun:"round_ids,type:jsonb"`
	GroupsComplete int                      `bun:"groups_complete,notnull,default:0"`
	ScheduledAt    time.Time                `bun:"scheduled_at,notnull"`
	CreatedAt      time.Time                `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time                `bun:",nullzero,notnull,default:current_timestamp"`
}

// RoundMessage is one chat message belonging to a round. Messages are the
// round's child records and are purged with it.
type RoundMessage struct {
	bun.BaseModel `bun:"table:round_messages,alias:rm"`

	ID        int64                `bun:"id,pk,autoincrement"`
	RoundID   sharedtypes.RoundID  `bun:"round_id,type:uuid,notnull"`
	AuthorID  sharedtypes.PlayerID `bun:"author_id,nullzero"`
	Body      string               `bun:"body,notnull"`
	System    bool                 `bun:"system,notnull,default:false"`
	CreatedAt time.Time            `bun:",nullzero,notnull,default:current_timestamp"`
}

// ReconcilerRun is one audit row per reconciler invocation, feeding the ops
// report.
type ReconcilerRun struct {
	bun.BaseModel `bun:"table:reconciler_runs,alias:rr"`

	ID           int64         `bun:"id,pk,autoincrement"`
	Swept        int           `bun:"swept,notnull,default:0"`
	Resolved     int           `bun:"resolved,notnull,default:0"`
	Purged       int           `bun:"purged,notnull,default:0"`
	ChildrenGone int           `bun:"children_deleted,notnull,default:0"`
	PassErrors   int           `bun:"pass_errors,notnull,default:0"`
	Duration     time.Duration `bun:"duration_ns,notnull,default:0"`
	RanAt        time.Time     `bun:"ran_at,nullzero,notnull,default:current_timestamp"`
}
