package roblox

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rbxkit/gamepass-manager/internal/testutil"
)

// newTestClient points both API hosts at the mock server with a tiny page
// delay so tests don't wait.
func newTestClient(t *testing.T, mock *testutil.MockRoblox) *Client {
	t.Helper()
	return New(Config{
		GamesBaseURL: mock.URL(),
		APIsBaseURL:  mock.URL(),
		PageDelay:    1 * time.Millisecond,
	})
}

func TestListGames(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetGames("12345", `[
		{"id": 1, "name": "First Game", "rootPlace": {"id": 100}},
		{"id": 2, "name": "Second Game", "rootPlace": {"id": 200}}
	]`)

	client := newTestClient(t, mock)
	games, err := client.ListGames(context.Background(), "12345")
	if err != nil {
		t.Fatalf("ListGames() error = %v", err)
	}

	if len(games) != 2 {
		t.Fatalf("len(games) = %d, want 2", len(games))
	}
	if games[0].Name != "First Game" || games[0].RootPlace.ID != 100 {
		t.Errorf("games[0] = %+v, want First Game with root place 100", games[0])
	}
}

func TestListGames_Empty(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetGames("12345", `[]`)

	client := newTestClient(t, mock)
	games, err := client.ListGames(context.Background(), "12345")
	if err != nil {
		t.Fatalf("ListGames() error = %v, empty list is not an error", err)
	}
	if len(games) != 0 {
		t.Errorf("len(games) = %d, want 0", len(games))
	}
}

func TestListGames_HTTPError(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetResponse(testutil.GamesPath("12345"), testutil.MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"errors":[{"message":"Unauthorized"}]}`,
	})

	client := newTestClient(t, mock)
	_, err := client.ListGames(context.Background(), "12345")
	if err == nil {
		t.Fatal("ListGames() error = nil, want APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Class != ErrorClassClient {
		t.Errorf("Class = %q, want %q", apiErr.Class, ErrorClassClient)
	}
}

func TestListGames_NetworkError(t *testing.T) {
	client := New(Config{
		GamesBaseURL: "http://127.0.0.1:1", // nothing listens here
		APIsBaseURL:  "http://127.0.0.1:1",
		HTTPClient:   &http.Client{Timeout: 500 * time.Millisecond},
	})

	_, err := client.ListGames(context.Background(), "12345")
	if err == nil {
		t.Fatal("ListGames() error = nil, want network APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", apiErr.Class, ErrorClassNetwork)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for network errors", apiErr.StatusCode)
	}
}

func TestResolveUniverseID(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetUniverse(100, 777)

	client := newTestClient(t, mock)
	universeID, err := client.ResolveUniverseID(context.Background(), 100)
	if err != nil {
		t.Fatalf("ResolveUniverseID() error = %v", err)
	}
	if universeID != 777 {
		t.Errorf("universeID = %d, want 777", universeID)
	}
}

func TestResolveUniverseID_Failure(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetResponse(testutil.UniversePath(100), testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"errors":[{"message":"NotFound"}]}`,
	})

	client := newTestClient(t, mock)
	_, err := client.ResolveUniverseID(context.Background(), 100)
	if err == nil {
		t.Fatal("ResolveUniverseID() error = nil, want APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

func TestClient_SessionCookie(t *testing.T) {
	mock := testutil.NewMockRoblox()
	defer mock.Close()

	mock.SetGames("12345", `[]`)

	client := New(Config{
		GamesBaseURL: mock.URL(),
		APIsBaseURL:  mock.URL(),
		Cookie:       "secret-session",
	})

	if _, err := client.ListGames(context.Background(), "12345"); err != nil {
		t.Fatalf("ListGames() error = %v", err)
	}

	cookie := mock.LastHeader(testutil.GamesPath("12345"), "Cookie")
	if cookie != ".ROBLOSECURITY=secret-session" {
		t.Errorf("Cookie header = %q, want session cookie", cookie)
	}
}
