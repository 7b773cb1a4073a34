package roundintegrationtests

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	"github.com/Back-Nine-Social-Club/fairway-bot/integration_tests/testutils"
	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
)

func TestLaunchOutingPersistsState(t *testing.T) {
	deps := SetupTestRoundService(t)
	generator := testutils.NewTestDataGenerator(42)

	req := generator.GenerateLaunchRequest(8, 4)

	result, err := deps.Service.LaunchOuting(deps.Ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.RoundIDs, 2)

	outing, err := deps.Outings.GetByID(deps.Ctx, nil, result.OutingID)
	require.NoError(t, err)
	assert.Equal(t, roundtypes.OutingStatusActive, outing.Status)
	assert.Equal(t, req.OrganizerID, outing.OrganizerID)
	assert.Len(t, outing.RoundIDs, 2)
	require.Len(t, outing.Groups, 2)
	for i, group := range outing.Groups {
		assert.Equal(t, result.RoundIDs[i], group.RoundID, "group %d should carry its round id", i)
	}

	rosterByID := make(map[sharedtypes.PlayerID]roundtypes.RosterEntry, len(req.Roster))
	for _, entry := range req.Roster {
		rosterByID[entry.PlayerID] = entry
	}

	for i, roundID := range result.RoundIDs {
		group := req.Groups[i]

		round, err := deps.Rounds.GetByID(deps.Ctx, nil, roundID)
		require.NoError(t, err)
		assert.Equal(t, roundtypes.RoundStatusLive, round.Status)
		require.NotNil(t, round.OutingID, "round should be back-referenced to the outing")
		assert.Equal(t, result.OutingID, *round.OutingID)
		assert.Len(t, round.Players, 4)

		// Reading the round back yields exactly what launch derived from the
		// request: the order rotated from the group's starting hole and the
		// marker's tee card as the hole layout.
		expectedOrder := make([]int, req.HoleCount)
		for j := range expectedOrder {
			expectedOrder[j] = (group.StartingHole-1+j)%req.HoleCount + 1
		}
		if diff := cmp.Diff(expectedOrder, round.PlayingOrder); diff != "" {
			t.Errorf("group %s playing order mismatch (-want +got):\n%s", group.GroupID, diff)
		}

		markerHoles := rosterByID[group.MarkerID].Holes[:req.HoleCount]
		if diff := cmp.Diff(markerHoles, round.HoleDetails); diff != "" {
			t.Errorf("group %s hole details mismatch (-want +got):\n%s", group.GroupID, diff)
		}

		markers := 0
		for _, player := range round.Players {
			if player.IsMarker {
				markers++
			}
		}
		assert.Equal(t, 1, markers, "each round has exactly one marker")
	}

	// Organizer is marker of the first group, so: no marker invite for group
	// one, three player invites there, then a marker invite plus three player
	// invites for group two.
	assert.Len(t, deps.Notifier.Sent(), 7)
}

func TestReconcilerSweepsStaleRounds(t *testing.T) {
	deps := SetupTestRoundService(t)
	generator := testutils.NewTestDataGenerator(42)

	result, err := deps.Service.LaunchOuting(deps.Ctx, generator.GenerateLaunchRequest(4, 4))
	require.NoError(t, err)
	require.Len(t, result.RoundIDs, 1)

	// Just under the threshold nothing is swept.
	deps.Clock.Advance(deps.Lifecycle.StaleAfter - time.Minute)
	report, err := deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Swept)
	assert.Equal(t, 0, report.PassErrors)

	deps.Clock.Advance(2 * time.Minute)
	report, err = deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Swept)
	assert.Equal(t, 0, report.PassErrors)

	round, err := deps.Rounds.GetByID(deps.Ctx, nil, result.RoundIDs[0])
	require.NoError(t, err)
	assert.Equal(t, roundtypes.RoundStatusAbandoned, round.Status)
	assert.Equal(t, roundtypes.AbandonReasonStale, round.AbandonReason)
	require.NotNil(t, round.AbandonedAt)

	// A second run finds nothing new.
	report, err = deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Swept)
}

func TestReconcilerPurgesAbandonedRoundsWithChildren(t *testing.T) {
	deps := SetupTestRoundService(t)
	generator := testutils.NewTestDataGenerator(42)

	result, err := deps.Service.LaunchOuting(deps.Ctx, generator.GenerateLaunchRequest(4, 4))
	require.NoError(t, err)
	roundID := result.RoundIDs[0]

	for i := 0; i < 3; i++ {
		err := deps.Messages.Create(deps.Ctx, nil, &rounddb.RoundMessage{
			RoundID:  roundID,
			AuthorID: "player-1-author",
			Body:     "nice shot",
		})
		require.NoError(t, err)
	}

	// Sweep first, then cross the retention threshold.
	deps.Clock.Advance(deps.Lifecycle.StaleAfter + time.Minute)
	report, err := deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Swept)

	deps.Clock.Advance(deps.Lifecycle.PurgeAfter + time.Minute)
	report, err = deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	// Three chat messages plus the system message seeded at launch.
	assert.Equal(t, 1, report.Purged)
	assert.Equal(t, 4, report.ChildrenGone)
	assert.Equal(t, 0, report.PassErrors)

	_, err = deps.Rounds.GetByID(deps.Ctx, nil, roundID)
	assert.ErrorIs(t, err, rounddb.ErrRoundNotFound)

	remaining, err := deps.Messages.CountForRound(deps.Ctx, nil, roundID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining, "child messages are purged with the round")
}

func TestReconcilerResolvesOrphanedTransfer(t *testing.T) {
	deps := SetupTestRoundService(t)
	generator := testutils.NewTestDataGenerator(42)

	result, err := deps.Service.LaunchOuting(deps.Ctx, generator.GenerateLaunchRequest(4, 4))
	require.NoError(t, err)
	roundID := result.RoundIDs[0]

	round, err := deps.Rounds.GetByID(deps.Ctx, nil, roundID)
	require.NoError(t, err)

	var requester roundtypes.Player
	for _, player := range round.Players {
		if !player.IsMarker {
			requester = player
			break
		}
	}
	require.NotEmpty(t, requester.PlayerID)

	now := deps.Clock.Now().UTC()
	transfer := roundtypes.TransferRequest{
		RequestedBy:     requester.PlayerID,
		RequestedByName: requester.DisplayName,
		Status:          roundtypes.TransferStatusPending,
		RequestedAt:     now,
		ExpiresAt:       now.Add(5 * time.Minute),
	}
	transferJSON, err := json.Marshal(transfer)
	require.NoError(t, err)
	_, err = deps.BunDB.NewUpdate().
		Model((*rounddb.Round)(nil)).
		Set("marker_transfer_request = ?::jsonb", string(transferJSON)).
		Where("id = ?", roundID).
		Exec(deps.Ctx)
	require.NoError(t, err)

	// Inside expiry plus grace the request is left for the client flow.
	deps.Clock.Advance(5*time.Minute + deps.Lifecycle.OrphanGrace)
	report, err := deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Resolved)

	deps.Clock.Advance(time.Minute)
	report, err = deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Resolved)
	assert.Equal(t, 0, report.PassErrors)

	resolved, err := deps.Rounds.GetByID(deps.Ctx, nil, roundID)
	require.NoError(t, err)
	assert.Nil(t, resolved.TransferRequest, "pending request is cleared")
	for _, player := range resolved.Players {
		if player.PlayerID == requester.PlayerID {
			assert.True(t, player.IsMarker, "requester is promoted to marker")
		} else {
			assert.False(t, player.IsMarker)
		}
	}
}

func TestReconcilerRecordsAuditRows(t *testing.T) {
	deps := SetupTestRoundService(t)

	start := deps.Clock.Now().UTC().Add(-time.Minute)

	_, err := deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)
	_, err = deps.Service.ReconcileRounds(deps.Ctx)
	require.NoError(t, err)

	runs, err := deps.Runs.ListSince(deps.Ctx, nil, start)
	require.NoError(t, err)
	assert.Len(t, runs, 2, "one audit row per invocation")
}
