package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/esplit/internal/metrics"
	"github.com/mmynk/esplit/internal/middleware"
	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/rpc"
	"github.com/mmynk/esplit/internal/storage/sqlite"
)

// fixedNow is the clock every test server runs on.
var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

// recordingPublisher keeps every published activity.
type recordingPublisher struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, activity models.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, activity)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) last() models.Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.activities) == 0 {
		return models.Activity{}
	}
	return p.activities[len(p.activities)-1]
}

type testEnv struct {
	groups    *rpc.GroupServiceClient
	ledger    *rpc.LedgerServiceClient
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

// setupTestServer creates a test server with both GroupService and LedgerService
// on a fresh SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "esplit-service-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to create store: %v", err)
	}

	publisher := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())
	opts := []Option{WithPublisher(publisher), WithMetrics(m), WithClock(func() time.Time { return fixedNow })}

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.ActorInterceptor(),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(rpc.NewGroupServiceHandler(NewGroupService(store, opts...), interceptors))
	mux.Handle(rpc.NewLedgerServiceHandler(NewLedgerService(store, opts...), interceptors))

	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.RemoveAll(tempDir)
	})

	return &testEnv{
		groups:    rpc.NewGroupServiceClient(http.DefaultClient, server.URL),
		ledger:    rpc.NewLedgerServiceClient(http.DefaultClient, server.URL),
		publisher: publisher,
		metrics:   m,
	}
}

// createGroup makes a group with the named participants, in order.
func (env *testEnv) createGroup(t *testing.T, names ...string) (string, []models.Participant) {
	t.Helper()
	ctx := context.Background()

	resp, err := env.groups.CreateGroup(ctx, connect.NewRequest(&rpc.CreateGroupRequest{Name: "Roommates"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := resp.Msg.Group.ID

	var participants []models.Participant
	for _, name := range names {
		pResp, err := env.groups.AddParticipant(ctx, connect.NewRequest(&rpc.AddParticipantRequest{
			GroupID: groupID,
			Name:    name,
		}))
		if err != nil {
			t.Fatalf("AddParticipant(%s) failed: %v", name, err)
		}
		participants = append(participants, *pResp.Msg.Participant)
	}
	return groupID, participants
}

// addExpense records an equal split and returns the stored transaction.
func (env *testEnv) addExpense(t *testing.T, groupID string, description string, amount float64, paidBy models.Participant, among ...models.Participant) *models.Transaction {
	t.Helper()

	ids := make([]models.ParticipantID, len(among))
	for i, p := range among {
		ids[i] = p.ID
	}
	resp, err := env.ledger.AddExpense(context.Background(), connect.NewRequest(&rpc.AddExpenseRequest{
		GroupID: groupID,
		Expense: rpc.ExpenseInput{
			Description: description,
			Amount:      amount,
			PaidBy:      paidBy.ID,
			SplitAmong:  ids,
		},
	}))
	if err != nil {
		t.Fatalf("AddExpense(%s) failed: %v", description, err)
	}
	return resp.Msg.Transaction
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected %v, got %v (%v)", want, got, err)
	}
}
