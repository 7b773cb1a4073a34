package roundservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	roundmetrics "github.com/Back-Nine-Social-Club/fairway-bot/observability/otel/metrics/round"
	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

// ------------------------
// Fake Round Repo
// ------------------------

type FakeRoundRepo struct {
	mu    sync.Mutex
	trace []string

	CreateFunc                  func(ctx context.Context, db bun.IDB, round *rounddb.Round) error
	GetByIDFunc                 func(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) (*rounddb.Round, error)
	UpdateOutingIDFunc          func(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, outingID sharedtypes.OutingID) error
	ListStaleFunc               func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error)
	AbandonBatchFunc            func(ctx context.Context, db bun.IDB, ids []sharedtypes.RoundID, reason string, now time.Time) (int, error)
	ListWithPendingTransferFunc func(ctx context.Context, db bun.IDB) ([]rounddb.Round, error)
	ApplyMarkerTransferFunc     func(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, players []roundtypes.Player, requestedAt time.Time) error
	ListPurgeableFunc           func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error)
	DeleteFunc                  func(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) error

	Created []*rounddb.Round
}

func NewFakeRoundRepo() *FakeRoundRepo {
	return &FakeRoundRepo{trace: []string{}}
}

func (f *FakeRoundRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeRoundRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeRoundRepo) Create(ctx context.Context, db bun.IDB, round *rounddb.Round) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, round)
	}
	f.mu.Lock()
	f.Created = append(f.Created, round)
	f.mu.Unlock()
	return nil
}

func (f *FakeRoundRepo) GetByID(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) (*rounddb.Round, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	return nil, rounddb.ErrRoundNotFound
}

func (f *FakeRoundRepo) UpdateOutingID(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, outingID sharedtypes.OutingID) error {
	f.record("UpdateOutingID")
	if f.UpdateOutingIDFunc != nil {
		return f.UpdateOutingIDFunc(ctx, db, id, outingID)
	}
	return nil
}

func (f *FakeRoundRepo) ListStale(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
	f.record("ListStale")
	if f.ListStaleFunc != nil {
		return f.ListStaleFunc(ctx, db, olderThan, limit)
	}
	return nil, nil
}

func (f *FakeRoundRepo) AbandonBatch(ctx context.Context, db bun.IDB, ids []sharedtypes.RoundID, reason string, now time.Time) (int, error) {
	f.record("AbandonBatch")
	if f.AbandonBatchFunc != nil {
		return f.AbandonBatchFunc(ctx, db, ids, reason, now)
	}
	return len(ids), nil
}

func (f *FakeRoundRepo) ListWithPendingTransfer(ctx context.Context, db bun.IDB) ([]rounddb.Round, error) {
	f.record("ListWithPendingTransfer")
	if f.ListWithPendingTransferFunc != nil {
		return f.ListWithPendingTransferFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeRoundRepo) ApplyMarkerTransfer(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, players []roundtypes.Player, requestedAt time.Time) error {
	f.record("ApplyMarkerTransfer")
	if f.ApplyMarkerTransferFunc != nil {
		return f.ApplyMarkerTransferFunc(ctx, db, id, players, requestedAt)
	}
	return nil
}

func (f *FakeRoundRepo) ListPurgeable(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
	f.record("ListPurgeable")
	if f.ListPurgeableFunc != nil {
		return f.ListPurgeableFunc(ctx, db, olderThan, limit)
	}
	return nil, nil
}

func (f *FakeRoundRepo) Delete(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, db, id)
	}
	return nil
}

// ------------------------
// Fake Outing Repo
// ------------------------

type FakeOutingRepo struct {
	mu    sync.Mutex
	trace []string

	CreateFunc  func(ctx context.Context, db bun.IDB, outing *rounddb.Outing) error
	GetByIDFunc func(ctx context.Context, db bun.IDB, id sharedtypes.OutingID) (*rounddb.Outing, error)

	Created []*rounddb.Outing
}

func NewFakeOutingRepo() *FakeOutingRepo {
	return &FakeOutingRepo{trace: []string{}}
}

func (f *FakeOutingRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeOutingRepo) Create(ctx context.Context, db bun.IDB, outing *rounddb.Outing) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, outing)
	}
	f.mu.Lock()
	f.Created = append(f.Created, outing)
	f.mu.Unlock()
	return nil
}

func (f *FakeOutingRepo) GetByID(ctx context.Context, db bun.IDB, id sharedtypes.OutingID) (*rounddb.Outing, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	return nil, rounddb.ErrOutingNotFound
}

// ------------------------
// Fake Message Repo
// ------------------------

type FakeMessageRepo struct {
	mu    sync.Mutex
	trace []string

	CreateFunc        func(ctx context.Context, db bun.IDB, msg *rounddb.RoundMessage) error
	ListIDsBatchFunc  func(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, limit int) ([]int64, error)
	DeleteBatchFunc   func(ctx context.Context, db bun.IDB, ids []int64) (int, error)
	CountForRoundFunc func(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) (int, error)

	Created []*rounddb.RoundMessage
}

func NewFakeMessageRepo() *FakeMessageRepo {
	return &FakeMessageRepo{trace: []string{}}
}

func (f *FakeMessageRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeMessageRepo) Create(ctx context.Context, db bun.IDB, msg *rounddb.RoundMessage) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, msg)
	}
	f.mu.Lock()
	f.Created = append(f.Created, msg)
	f.mu.Unlock()
	return nil
}

func (f *FakeMessageRepo) ListIDsBatch(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, limit int) ([]int64, error) {
	f.record("ListIDsBatch")
	if f.ListIDsBatchFunc != nil {
		return f.ListIDsBatchFunc(ctx, db, roundID, limit)
	}
	return nil, nil
}

func (f *FakeMessageRepo) DeleteBatch(ctx context.Context, db bun.IDB, ids []int64) (int, error) {
	f.record("DeleteBatch")
	if f.DeleteBatchFunc != nil {
		return f.DeleteBatchFunc(ctx, db, ids)
	}
	return len(ids), nil
}

func (f *FakeMessageRepo) CountForRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) (int, error) {
	f.record("CountForRound")
	if f.CountForRoundFunc != nil {
		return f.CountForRoundFunc(ctx, db, roundID)
	}
	return 0, nil
}

// ------------------------
// Fake Reconciler Run Repo
// ------------------------

type FakeRunRepo struct {
	mu sync.Mutex

	InsertRunFunc func(ctx context.Context, db bun.IDB, run *rounddb.ReconcilerRun) error
	ListSinceFunc func(ctx context.Context, db bun.IDB, since time.Time) ([]rounddb.ReconcilerRun, error)

	Inserted []*rounddb.ReconcilerRun
}

func NewFakeRunRepo() *FakeRunRepo {
	return &FakeRunRepo{}
}

func (f *FakeRunRepo) InsertRun(ctx context.Context, db bun.IDB, run *rounddb.ReconcilerRun) error {
	if f.InsertRunFunc != nil {
		return f.InsertRunFunc(ctx, db, run)
	}
	f.mu.Lock()
	f.Inserted = append(f.Inserted, run)
	f.mu.Unlock()
	return nil
}

func (f *FakeRunRepo) ListSince(ctx context.Context, db bun.IDB, since time.Time) ([]rounddb.ReconcilerRun, error) {
	if f.ListSinceFunc != nil {
		return f.ListSinceFunc(ctx, db, since)
	}
	return nil, nil
}

// ------------------------
// Fake Dispatcher
// ------------------------

type FakeDispatcher struct {
	mu sync.Mutex

	DispatchFunc func(ctx context.Context, n Notification) error

	Dispatched []Notification
}

func NewFakeDispatcher() *FakeDispatcher {
	return &FakeDispatcher{}
}

func (f *FakeDispatcher) Dispatch(ctx context.Context, n Notification) error {
	f.mu.Lock()
	f.Dispatched = append(f.Dispatched, n)
	f.mu.Unlock()
	if f.DispatchFunc != nil {
		return f.DispatchFunc(ctx, n)
	}
	return nil
}

func (f *FakeDispatcher) Sent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.Dispatched...)
}

// ------------------------
// Fixed Clock
// ------------------------

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// ------------------------
// Service constructor for tests
// ------------------------

type serviceDeps struct {
	rounds     *FakeRoundRepo
	outings    *FakeOutingRepo
	messages   *FakeMessageRepo
	runs       *FakeRunRepo
	dispatcher *FakeDispatcher
	clock      Clock
	lifecycle  LifecycleConfig
}

func newTestDeps(now time.Time) *serviceDeps {
	return &serviceDeps{
		rounds:     NewFakeRoundRepo(),
		outings:    NewFakeOutingRepo(),
		messages:   NewFakeMessageRepo(),
		runs:       NewFakeRunRepo(),
		dispatcher: NewFakeDispatcher(),
		clock:      fixedClock{now: now},
		lifecycle:  DefaultLifecycleConfig(),
	}
}

func (d *serviceDeps) build() *RoundService {
	return NewRoundService(
		d.rounds,
		d.outings,
		d.messages,
		d.runs,
		d.dispatcher,
		slog.Default(),
		roundmetrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
		d.clock,
		d.lifecycle,
		NewTeeTimeParser(time.UTC),
	)
}
