package roundhandlers

import (
	"context"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
)

// ------------------------
// Fake Round Service
// ------------------------

type FakeRoundService struct {
	trace []string

	LaunchOutingFunc    func(ctx context.Context, req roundtypes.LaunchRequest) (*roundtypes.LaunchResult, error)
	ReconcileRoundsFunc func(ctx context.Context) (roundtypes.ReconcileReport, error)
	ParseRosterFunc     func(ctx context.Context, data []byte) (*roundservice.RosterImport, error)
}

func NewFakeRoundService() *FakeRoundService {
	return &FakeRoundService{
		trace: []string{},
	}
}

func (f *FakeRoundService) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeRoundService) LaunchOuting(ctx context.Context, req roundtypes.LaunchRequest) (*roundtypes.LaunchResult, error) {
	f.record("LaunchOuting")
	if f.LaunchOutingFunc != nil {
		return f.LaunchOutingFunc(ctx, req)
	}
	return &roundtypes.LaunchResult{}, nil
}

func (f *FakeRoundService) ReconcileRounds(ctx context.Context) (roundtypes.ReconcileReport, error) {
	f.record("ReconcileRounds")
	if f.ReconcileRoundsFunc != nil {
		return f.ReconcileRoundsFunc(ctx)
	}
	return roundtypes.ReconcileReport{}, nil
}

func (f *FakeRoundService) ParseRoster(ctx context.Context, data []byte) (*roundservice.RosterImport, error) {
	f.record("ParseRoster")
	if f.ParseRosterFunc != nil {
		return f.ParseRosterFunc(ctx, data)
	}
	return &roundservice.RosterImport{}, nil
}

// --- Accessors for assertions ---

func (f *FakeRoundService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ roundservice.Service = (*FakeRoundService)(nil)
