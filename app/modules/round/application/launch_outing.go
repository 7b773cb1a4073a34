package roundservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	notificationevents "github.com/Back-Nine-Social-Club/fairway-bot/events/notification"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils/results"
)

// LaunchOuting implements the launch workflow: validate, create one round
// per group in parallel, create the outing, backfill each round's outing id,
// seed the round chat, and fan out invites. Validation is terminal with zero
// side effects. Once round creation begins, the created records are the
// success criterion: backfill and notification failures are logged and
// swallowed, never retried in this invocation.
func (s *RoundService) LaunchOuting(ctx context.Context, req roundtypes.LaunchRequest) (*roundtypes.LaunchResult, error) {
	result, err := withTelemetry(s, ctx, "LaunchOuting", string(req.OrganizerID), func(ctx context.Context) (results.OperationResult[roundtypes.LaunchResult, error], error) {
		return s.launchOutingLogic(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return result.Success, nil
}

func (s *RoundService) launchOutingLogic(ctx context.Context, req roundtypes.LaunchRequest) (results.OperationResult[roundtypes.LaunchResult, error], error) {
	now := s.clock.Now().UTC()

	if verr := validateLaunchRequest(req); verr != nil {
		return results.FailureResult[roundtypes.LaunchResult, error](error(verr)), nil
	}

	scheduledAt, err := s.teeTimes.Parse(req.TeeTime, now)
	if err != nil {
		if IsValidationError(err) {
			return results.FailureResult[roundtypes.LaunchResult, error](err), nil
		}
		return results.OperationResult[roundtypes.LaunchResult, error]{}, err
	}

	rosterByID := make(map[sharedtypes.PlayerID]roundtypes.RosterEntry, len(req.Roster))
	for _, entry := range req.Roster {
		rosterByID[entry.PlayerID] = entry
	}

	// Build every round record up front so a failure here is still
	// side-effect free.
	rounds := make([]*rounddb.Round, len(req.Groups))
	for i, group := range req.Groups {
		rounds[i] = buildRound(req, group, rosterByID, now)
	}

	// Step 3: create rounds in parallel, outing id left null.
	var wg sync.WaitGroup
	createErrs := make([]error, len(rounds))
	for i, round := range rounds {
		wg.Add(1)
		go func(i int, round *rounddb.Round) {
			defer wg.Done()
			createErrs[i] = s.roundRepo.Create(ctx, nil, round)
		}(i, round)
	}
	wg.Wait()
	for i, cerr := range createErrs {
		if cerr != nil {
			return results.OperationResult[roundtypes.LaunchResult, error]{}, fmt.Errorf("failed to create round for group %s: %w", req.Groups[i].GroupID, cerr)
		}
	}

	roundIDs := make([]sharedtypes.RoundID, len(rounds))
	for i, round := range rounds {
		roundIDs[i] = round.ID
	}

	// Step 4: create the outing referencing all round ids.
	outing := buildOuting(req, rounds, roundIDs, scheduledAt)
	if err := s.outingRepo.Create(ctx, nil, outing); err != nil {
		return results.OperationResult[roundtypes.LaunchResult, error]{}, fmt.Errorf("failed to create outing: %w", err)
	}

	// Step 5: backfill each round's outing back-reference. The rounds and
	// outing already exist, so a failure here is logged and left for
	// inspection rather than failing the launch. Re-running the update is
	// safe; it writes the same value.
	for _, round := range rounds {
		if err := s.roundRepo.UpdateOutingID(ctx, nil, round.ID, outing.ID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to backfill outing id",
				attr.ExtractCorrelationID(ctx),
				attr.RoundID("round_id", round.ID),
				attr.OutingID("outing_id", outing.ID),
				attr.Error(err),
			)
		}
	}

	// Seed each round's chat with a system message so every round owns at
	// least one child record. Best-effort.
	for _, round := range rounds {
		msg := &rounddb.RoundMessage{
			RoundID:   round.ID,
			Body:      "Round created — good luck!",
			System:    true,
			CreatedAt: now,
		}
		if err := s.messageRepo.Create(ctx, nil, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to seed round chat",
				attr.ExtractCorrelationID(ctx),
				attr.RoundID("round_id", round.ID),
				attr.Error(err),
			)
		}
	}

	// Step 6: invite fan-out, best-effort.
	s.dispatchInvites(ctx, req, rounds, outing.ID)

	if s.metrics != nil {
		s.metrics.RecordRoundsLaunched(ctx, len(rounds))
	}

	return results.SuccessResult[roundtypes.LaunchResult, error](roundtypes.LaunchResult{
		OutingID:         outing.ID,
		RoundIDs:         roundIDs,
		OrganizerRoundID: organizerRoundID(req.OrganizerID, req.Groups, rounds),
		LaunchedAt:       now,
	}), nil
}

// validateLaunchRequest checks every launch precondition. The returned error
// names the specific violated precondition.
func validateLaunchRequest(req roundtypes.LaunchRequest) *ValidationError {
	if req.CourseID == "" {
		return NewValidationError("course identifier is required")
	}
	if req.HoleCount <= 0 {
		return NewValidationError("hole count must be positive")
	}
	if req.OrganizerID == "" {
		return NewValidationError("organizer is required")
	}
	if len(req.Roster) < 2 {
		return NewValidationError("roster must have at least 2 players, got %d", len(req.Roster))
	}
	if len(req.Groups) == 0 {
		return NewValidationError("at least one group is required")
	}

	rosterByID := make(map[sharedtypes.PlayerID]roundtypes.RosterEntry, len(req.Roster))
	for _, entry := range req.Roster {
		rosterByID[entry.PlayerID] = entry
	}

	for _, group := range req.Groups {
		label := group.GroupName
		if label == "" {
			label = string(group.GroupID)
		}
		if len(group.PlayerIDs) == 0 {
			return NewValidationError("group %s has no players", label)
		}
		if group.MarkerID == "" {
			return NewValidationError("group %s has no designated scorer", label)
		}
		marker, ok := rosterByID[group.MarkerID]
		if !ok {
			return NewValidationError("group %s marker %s is not in the roster", label, group.MarkerID)
		}
		if marker.IsGhost {
			return NewValidationError("group %s marker %s is a ghost player and cannot keep score", label, group.MarkerID)
		}
		markerInGroup := false
		for _, pid := range group.PlayerIDs {
			if _, ok := rosterByID[pid]; !ok {
				return NewValidationError("group %s player %s is not in the roster", label, pid)
			}
			if pid == group.MarkerID {
				markerInGroup = true
			}
		}
		if !markerInGroup {
			return NewValidationError("group %s marker %s is not a member of the group", label, group.MarkerID)
		}
	}

	return nil
}

// buildRound materializes one round record from a group: players embedded as
// an immutable snapshot, the marker's tee data as the canonical hole layout,
// and the playing order rotated from the group's starting hole.
func buildRound(req roundtypes.LaunchRequest, group roundtypes.GroupRequest, rosterByID map[sharedtypes.PlayerID]roundtypes.RosterEntry, now time.Time) *rounddb.Round {
	marker := rosterByID[group.MarkerID]

	players := make([]roundtypes.Player, 0, len(group.PlayerIDs))
	for _, pid := range group.PlayerIDs {
		entry := rosterByID[pid]
		players = append(players, roundtypes.Player{
			PlayerID:      entry.PlayerID,
			DisplayName:   entry.DisplayName,
			IsMarker:      pid == group.MarkerID,
			IsGhost:       entry.IsGhost,
			HandicapIndex: entry.HandicapIndex,
			PlayingHcp:    entry.PlayingHcp,
			TeeID:         entry.TeeID,
		})
	}

	return &rounddb.Round{
		ID:           sharedtypes.NewRoundID(),
		GroupID:      group.GroupID,
		GroupName:    group.GroupName,
		MarkerID:     group.MarkerID,
		Status:       roundtypes.RoundStatusLive,
		Players:      players,
		CourseID:     req.CourseID,
		CourseName:   req.CourseName,
		Format:       req.Format,
		HoleCount:    req.HoleCount,
		PlayingOrder: computePlayingOrder(req.HoleCount, group.StartingHole),
		HoleDetails:  holeLayout(marker, req.HoleCount),
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// holeLayout takes the marker's tee data as the canonical layout. When the
// marker carries no tee data the layout falls back to a neutral par-4 card
// so downstream scoring always has a complete hole list.
func holeLayout(marker roundtypes.RosterEntry, holeCount int) []roundtypes.HoleDetail {
	if len(marker.Holes) >= holeCount {
		return marker.Holes[:holeCount]
	}
	holes := make([]roundtypes.HoleDetail, holeCount)
	for i := range holes {
		holes[i] = roundtypes.HoleDetail{
			Number:      i + 1,
			Par:         4,
			StrokeIndex: i + 1,
		}
	}
	return holes
}

func buildOuting(req roundtypes.LaunchRequest, rounds []*rounddb.Round, roundIDs []sharedtypes.RoundID, scheduledAt time.Time) *rounddb.Outing {
	groups := make([]roundtypes.OutingGroup, len(req.Groups))
	for i, group := range req.Groups {
		groups[i] = roundtypes.OutingGroup{
			GroupID:   group.GroupID,
			GroupName: group.GroupName,
			PlayerIDs: group.PlayerIDs,
			MarkerID:  group.MarkerID,
			RoundID:   rounds[i].ID,
			Status:    roundtypes.RoundStatusLive,
		}
	}

	return &rounddb.Outing{
		ID:          sharedtypes.NewOutingID(),
		OrganizerID: req.OrganizerID,
		Status:      roundtypes.OutingStatusActive,
		CourseID:    req.CourseID,
		CourseName:  req.CourseName,
		Format:      req.Format,
		HoleCount:   req.HoleCount,
		Roster:      req.Roster,
		Groups:      groups,
		RoundIDs:    roundIDs,
		ScheduledAt: scheduledAt,
	}
}

// organizerRoundID picks the round whose group marker is the caller, falling
// back to the first created round.
func organizerRoundID(organizer sharedtypes.PlayerID, groups []roundtypes.GroupRequest, rounds []*rounddb.Round) sharedtypes.RoundID {
	for i, group := range groups {
		if group.MarkerID == organizer {
			return rounds[i].ID
		}
	}
	return rounds[0].ID
}

// dispatchInvites fans out invite notifications: one to every non-organizer
// group marker, then one to every other non-marker, non-ghost player. Every
// dispatch is best-effort; ordering is incidental and nothing may rely on
// it.
func (s *RoundService) dispatchInvites(ctx context.Context, req roundtypes.LaunchRequest, rounds []*rounddb.Round, outingID sharedtypes.OutingID) {
	for i, group := range req.Groups {
		roundID := rounds[i].ID

		if group.MarkerID != req.OrganizerID {
			s.dispatchOne(ctx, Notification{
				Type:        notificationevents.TypeMarkerInvite,
				RecipientID: group.MarkerID,
				Payload: map[string]any{
					"outing_id":   outingID.String(),
					"round_id":    roundID.String(),
					"group_name":  group.GroupName,
					"course_name": req.CourseName,
				},
			})
		}

		for _, player := range rounds[i].Players {
			if player.IsMarker || player.IsGhost || player.PlayerID == req.OrganizerID {
				continue
			}
			s.dispatchOne(ctx, Notification{
				Type:        notificationevents.TypePlayerInvite,
				RecipientID: player.PlayerID,
				Payload: map[string]any{
					"outing_id":   outingID.String(),
					"round_id":    roundID.String(),
					"group_name":  group.GroupName,
					"course_name": req.CourseName,
				},
			})
		}
	}
}

func (s *RoundService) dispatchOne(ctx context.Context, n Notification) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "Invite dispatch failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("type", n.Type),
			attr.PlayerID("recipient_id", n.RecipientID),
			attr.Error(err),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordInviteDispatched(ctx)
	}
}
