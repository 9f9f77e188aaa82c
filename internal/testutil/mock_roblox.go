// Package testutil provides testing utilities for the gamepass manager.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockRoblox is a configurable mock platform API server for testing. One
// server stands in for both API hosts; tests point both base URLs at it.
type MockRoblox struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requestCounts map[string]int
	lastHeaders   map[string]http.Header
}

// NewMockRoblox creates a new mock platform server.
func NewMockRoblox() *MockRoblox {
	mock := &MockRoblox{
		handlers:      make(map[string]func(w http.ResponseWriter, r *http.Request)),
		requestCounts: make(map[string]int),
		lastHeaders:   make(map[string]http.Header),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCounts[r.URL.Path]++
		mock.lastHeaders[r.URL.Path] = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockRoblox) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockRoblox) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockRoblox) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCounts = make(map[string]int)
	m.lastHeaders = make(map[string]http.Header)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockRoblox) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockRoblox) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests made to a path.
func (m *MockRoblox) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCounts[path]
}

// TotalRequests returns the number of requests made to the server.
func (m *MockRoblox) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.requestCounts {
		total += n
	}
	return total
}

// LastHeader returns a header from the most recent request to a path.
func (m *MockRoblox) LastHeader(path, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.lastHeaders[path]
	if !ok {
		return ""
	}
	return h.Get(key)
}

// GamesPath returns the games list path for a user.
func GamesPath(userID string) string {
	return fmt.Sprintf("/v2/users/%s/games", userID)
}

// UniversePath returns the universe resolution path for a place.
func UniversePath(placeID int64) string {
	return fmt.Sprintf("/universes/v1/places/%d/universe", placeID)
}

// GamePassesPath returns the gamepass list path for a universe.
func GamePassesPath(universeID int64) string {
	return fmt.Sprintf("/v1/games/%d/game-passes", universeID)
}

// CreateGamePassPath is the gamepass creation path.
const CreateGamePassPath = "/game-passes/v1/game-passes"

// DetailsPath returns the sale-state path for a gamepass.
func DetailsPath(gamePassID int64) string {
	return fmt.Sprintf("/game-passes/v1/game-passes/%d/details", gamePassID)
}

// SetGames configures the games list for a user. games is the JSON array for
// the "data" field, e.g. `[{"id":1,"name":"My Game","rootPlace":{"id":99}}]`.
func (m *MockRoblox) SetGames(userID string, games string) {
	m.SetResponse(GamesPath(userID), MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"data": %s}`, games),
	})
}

// SetUniverse configures the place-to-universe resolution for a place.
func (m *MockRoblox) SetUniverse(placeID, universeID int64) {
	m.SetResponse(UniversePath(placeID), MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"universeId": %d}`, universeID),
	})
}

// SetGamePassPages configures cursor pagination for a universe's gamepass
// list. Each element is the JSON array for one page's "data" field; every
// page except the last returns a continuation cursor.
func (m *MockRoblox) SetGamePassPages(universeID int64, pages []string) {
	m.SetHandler(GamePassesPath(universeID), func(w http.ResponseWriter, r *http.Request) {
		page := 0
		if cursor := r.URL.Query().Get("cursor"); cursor != "" {
			fmt.Sscanf(cursor, "page-%d", &page)
		}
		if page >= len(pages) {
			http.Error(w, `{"errors":[{"message":"InvalidCursor"}]}`, http.StatusBadRequest)
			return
		}

		next := ""
		if page+1 < len(pages) {
			next = fmt.Sprintf("page-%d", page+1)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		resp := map[string]any{"nextPageCursor": next}
		if next == "" {
			resp["nextPageCursor"] = nil
		}
		var data json.RawMessage = []byte(pages[page])
		resp["data"] = data
		json.NewEncoder(w).Encode(resp)
	})
}

// SetCreateGamePass configures the creation endpoint to hand out sequential
// pass ids starting at firstID.
func (m *MockRoblox) SetCreateGamePass(firstID int64) {
	var mu sync.Mutex
	next := firstID
	m.SetHandler(CreateGamePassPath, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		id := next
		next++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprintf(w, `{"gamePassId": %d}`, id)
	})
}

// SetDetailsOK configures the sale-state endpoint for a gamepass to succeed.
func (m *MockRoblox) SetDetailsOK(gamePassID int64) {
	m.SetResponse(DetailsPath(gamePassID), MockResponse{StatusCode: http.StatusOK, Body: `{}`})
}

// NewLimitErrorResponse creates the platform's generic response at the
// per-experience gamepass cap.
func NewLimitErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors":[{"code":0,"message":"InternalError"}]}`,
	}
}

// NewBadRequestResponse creates a 400 response with the given message.
func NewBadRequestResponse(message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       fmt.Sprintf(`{"errors":[{"message":"%s"}]}`, message),
	}
}
