package batch

import (
	"context"
	"testing"
	"time"

	"github.com/rbxkit/gamepass-manager/internal/testutil"
	"github.com/rbxkit/gamepass-manager/pkg/roblox"
)

// newStackedOrchestrator wires the real platform client against the mock
// server, with pacing disabled.
func newStackedOrchestrator(t *testing.T, mock *testutil.MockRoblox) *Orchestrator {
	t.Helper()

	client := roblox.New(roblox.Config{
		GamesBaseURL: mock.URL(),
		APIsBaseURL:  mock.URL(),
		PageDelay:    1 * time.Millisecond,
	})

	o, err := New(Config{API: client, Pacer: NopPacer{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestCreateWorkflow_AgainstMockServer(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetGames("12345", `[{"id": 1, "name": "My Game", "rootPlace": {"id": 100}}]`)
	mock.SetUniverse(100, 777)
	mock.SetCreateGamePass(9001)
	mock.SetDetailsOK(9001)
	mock.SetDetailsOK(9002)

	o := newStackedOrchestrator(t, mock)
	report, err := o.CreateGamePasses(context.Background(), testSession(), []int64{10, 25})
	if err != nil {
		t.Fatalf("CreateGamePasses() error = %v", err)
	}

	if report.SuccessCount != 2 || report.HitLimit {
		t.Fatalf("report = %+v, want 2 successes", report)
	}
	if report.Results[0].GamePassID != 9001 || report.Results[1].GamePassID != 9002 {
		t.Errorf("pass ids = %d, %d, want 9001 and 9002",
			report.Results[0].GamePassID, report.Results[1].GamePassID)
	}

	// The anti-forgery token rides on every mutating call.
	if csrf := mock.LastHeader(testutil.CreateGamePassPath, "x-csrf-token"); csrf != "token-abc" {
		t.Errorf("create csrf = %q, want token-abc", csrf)
	}
	if csrf := mock.LastHeader(testutil.DetailsPath(9001), "x-csrf-token"); csrf != "token-abc" {
		t.Errorf("details csrf = %q, want token-abc", csrf)
	}
}

func TestCreateWorkflow_LimitResponseFromServer(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetGames("12345", `[{"id": 1, "name": "My Game", "rootPlace": {"id": 100}}]`)
	mock.SetUniverse(100, 777)
	mock.SetResponse(testutil.CreateGamePassPath, testutil.NewLimitErrorResponse())

	o := newStackedOrchestrator(t, mock)
	report, err := o.CreateGamePasses(context.Background(), testSession(), []int64{10, 20})
	if err != nil {
		t.Fatalf("CreateGamePasses() error = %v", err)
	}

	if !report.HitLimit || report.SuccessCount != 0 {
		t.Fatalf("report = %+v, want limit hit", report)
	}
	if got := mock.RequestCount(testutil.CreateGamePassPath); got != 1 {
		t.Errorf("create requests = %d, want 1 (no attempts after the limit hit)", got)
	}
	if report.Results[1].Error != "Skipped (limit reached)" {
		t.Errorf("Results[1].Error = %q", report.Results[1].Error)
	}
}

func TestRemoveWorkflow_AgainstMockServer(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetGames("12345", `[{"id": 1, "name": "My Game", "rootPlace": {"id": 100}}]`)
	mock.SetUniverse(100, 777)
	// Two pages; one pass on page two is already off-sale.
	mock.SetGamePassPages(777, []string{
		`[{"id": 1, "name": "10", "price": 10, "productId": 501}]`,
		`[{"id": 2, "name": "25", "price": 25, "productId": null},
		  {"id": 3, "name": "50", "price": 50, "productId": 503}]`,
	})
	mock.SetDetailsOK(1)
	mock.SetDetailsOK(3)

	o := newStackedOrchestrator(t, mock)
	report, err := o.RemoveAllGamePasses(context.Background(), testSession())
	if err != nil {
		t.Fatalf("RemoveAllGamePasses() error = %v", err)
	}

	if report.SuccessCount != 2 || report.SkippedCount != 1 {
		t.Fatalf("report = %+v, want 2 removed and 1 skipped", report)
	}
	if got := mock.RequestCount(testutil.GamePassesPath(777)); got != 2 {
		t.Errorf("list requests = %d, want 2 pages", got)
	}
	if got := mock.RequestCount(testutil.DetailsPath(2)); got != 0 {
		t.Errorf("off-sale pass was touched %d time(s), want 0", got)
	}
}
