// Package roblox provides the platform API client for game and gamepass
// operations, with error classification and request observability.
package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rbxkit/gamepass-manager/pkg/cache"
)

// Prometheus metrics for platform API operations.
var (
	robloxRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roblox_requests_total",
		Help: "Total platform requests by endpoint and status",
	}, []string{"endpoint", "status"})

	robloxRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roblox_request_duration_seconds",
		Help:    "Platform request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	robloxErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roblox_errors_total",
		Help: "Total platform errors by class",
	}, []string{"class"})
)

// Default base URLs for the platform's two API hosts.
const (
	DefaultGamesBaseURL = "https://games.roblox.com"
	DefaultAPIsBaseURL  = "https://apis.roblox.com"
)

// DefaultPageDelay is the pause between gamepass list pages.
const DefaultPageDelay = 200 * time.Millisecond

// sessionCookie is the platform's ambient authentication cookie.
const sessionCookie = ".ROBLOSECURITY"

// Client is the platform API client. It performs no retries: every failure
// is normalized to an *APIError and surfaced to the caller.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// HTTPClient to use for requests (default: 30s timeout client).
	HTTPClient *http.Client

	// GamesBaseURL overrides the games host (tests point this at a mock).
	GamesBaseURL string

	// APIsBaseURL overrides the apis host.
	APIsBaseURL string

	// Cookie is the session cookie value attached to every request.
	// Empty means the HTTPClient's jar is expected to carry it.
	Cookie string

	// UniverseCache, when non-nil, short-circuits place-to-universe lookups.
	UniverseCache *cache.UniverseCache

	// PageDelay is the pause between gamepass list pages.
	PageDelay time.Duration
}

// New creates a new platform client.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.GamesBaseURL == "" {
		cfg.GamesBaseURL = DefaultGamesBaseURL
	}
	if cfg.APIsBaseURL == "" {
		cfg.APIsBaseURL = DefaultAPIsBaseURL
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = DefaultPageDelay
	}

	return &Client{
		httpClient: cfg.HTTPClient,
		config:     cfg,
		logger:     log.With().Str("component", "roblox-client").Logger(),
	}
}

// do executes a request and normalizes failures into *APIError.
// failMsg becomes the human-readable prefix of the error, e.g.
// "Failed to create gamepass: 500 - InternalError".
func (c *Client) do(req *http.Request, endpoint, failMsg string) (*http.Response, error) {
	startTime := time.Now()
	defer func() {
		robloxRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if c.config.Cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.config.Cookie})
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing platform request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		robloxErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		robloxRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &APIError{
			Class:   ErrorClassNetwork,
			Message: failMsg,
			Err:     err,
		}
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		errClass := classifyStatus(resp.StatusCode)
		robloxErrorsTotal.WithLabelValues(string(errClass)).Inc()
		robloxRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Platform request error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Class:      errClass,
			Message:    failMsg,
			Body:       string(body),
		}
	}

	robloxRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	return resp, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, url, endpoint, failMsg string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req, endpoint, failMsg)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", failMsg, err)
	}
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
