package roundintegrationtests

import (
	"context"
	"io"
	"log"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	"github.com/Back-Nine-Social-Club/fairway-bot/eventbus"
	"github.com/Back-Nine-Social-Club/fairway-bot/integration_tests/testutils"
	roundmetrics "github.com/Back-Nine-Social-Club/fairway-bot/observability/otel/metrics/round"
)

var (
	testEnv     *testutils.TestEnvironment
	testEnvErr  error
	testEnvOnce sync.Once
)

// RoundTestDeps bundles everything one test needs: a service over the real
// database, the repositories for direct state inspection, and a settable
// clock so threshold boundaries can be crossed without sleeping.
type RoundTestDeps struct {
	Ctx       context.Context
	BunDB     *bun.DB
	Rounds    rounddb.RoundRepository
	Outings   rounddb.OutingRepository
	Messages  rounddb.MessageRepository
	Runs      rounddb.ReconcilerRunRepository
	Service   roundservice.Service
	EventBus  eventbus.EventBus
	Clock     *settableClock
	Notifier  *recordingDispatcher
	Lifecycle roundservice.LifecycleConfig
}

// settableClock is a Clock whose reading tests move by hand.
type settableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *settableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *settableClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *settableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingDispatcher captures dispatched notifications for assertions.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []roundservice.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n roundservice.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordingDispatcher) Sent() []roundservice.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]roundservice.Notification, len(d.sent))
	copy(out, d.sent)
	return out
}

func GetTestEnv(t *testing.T) *testutils.TestEnvironment {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testEnvOnce.Do(func() {
		log.Println("Initializing round test environment...")
		env, err := testutils.NewTestEnvironment(t)
		if err != nil {
			testEnvErr = err
			log.Printf("Failed to set up test environment: %v", err)
			return
		}
		log.Println("Round test environment initialized successfully.")
		testEnv = env
	})

	if testEnvErr != nil {
		t.Fatalf("Round test environment initialization failed: %v", testEnvErr)
	}
	if testEnv == nil {
		t.Fatalf("Round test environment not initialized")
	}

	return testEnv
}

// SetupTestRoundService truncates the round tables and builds a fresh service
// over the shared containers.
func SetupTestRoundService(t *testing.T) RoundTestDeps {
	t.Helper()

	env := GetTestEnv(t)

	resetCtx, resetCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer resetCancel()
	if err := testutils.TruncateRoundTables(resetCtx, env.DB); err != nil {
		t.Fatalf("Failed to reset round tables: %v", err)
	}

	rounds := rounddb.NewRoundRepository(env.DB)
	outings := rounddb.NewOutingRepository(env.DB)
	messages := rounddb.NewMessageRepository(env.DB)
	runs := rounddb.NewReconcilerRunRepository(env.DB)

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	noOpTracer := noop.NewTracerProvider().Tracer("test_round_service")

	clock := &settableClock{now: time.Now().UTC().Truncate(time.Second)}
	notifier := &recordingDispatcher{}
	lifecycle := roundservice.DefaultLifecycleConfig()
	lifecycle.BatchSize = 50

	service := roundservice.NewRoundService(
		rounds,
		outings,
		messages,
		runs,
		notifier,
		testLogger,
		roundmetrics.NewNoop(),
		noOpTracer,
		env.DB,
		clock,
		lifecycle,
		roundservice.NewTeeTimeParser(time.UTC),
	)

	return RoundTestDeps{
		Ctx:       env.Ctx,
		BunDB:     env.DB,
		Rounds:    rounds,
		Outings:   outings,
		Messages:  messages,
		Runs:      runs,
		Service:   service,
		EventBus:  env.EventBus,
		Clock:     clock,
		Notifier:  notifier,
		Lifecycle: lifecycle,
	}
}
