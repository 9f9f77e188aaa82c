package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var robloxGamepassPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "roblox_gamepass_pages_total",
	Help: "Gamepass list pages fetched",
})

// csrfHeader is the anti-forgery token header required on mutating requests.
const csrfHeader = "x-csrf-token"

// GamePass is a purchasable entitlement on a game. A nil ProductID means the
// pass is already off-sale.
type GamePass struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     *int64 `json:"price"`
	ProductID *int64 `json:"productId"`
}

// IsForSale reports whether the pass is currently listed.
func (g GamePass) IsForSale() bool {
	return g.ProductID != nil
}

// SaleState describes the target listing state for SetSaleState.
type SaleState struct {
	ForSale bool
	Price   int64 // required when ForSale is true
}

type gamepassPage struct {
	Data           []GamePass `json:"data"`
	NextPageCursor string     `json:"nextPageCursor"`
}

type createResponse struct {
	GamePassID int64 `json:"gamePassId"`
}

// GamePassPages walks the universe's gamepasses page by page in server order,
// invoking fn once per page. A non-nil return from fn stops the walk and is
// returned as-is. Pages are fetched sequentially with a fixed pause between
// requests; the cursor protocol makes page N+1 unknowable before page N.
func (c *Client) GamePassPages(ctx context.Context, universeID int64, fn func(passes []GamePass) error) error {
	cursor := ""
	pages := 0

	for {
		passes, next, err := c.passPage(ctx, universeID, cursor)
		if err != nil {
			return err
		}
		pages++
		robloxGamepassPagesTotal.Inc()

		if err := fn(passes); err != nil {
			return err
		}

		if next == "" {
			c.logger.Debug().
				Int64("universe_id", universeID).
				Int("pages", pages).
				Msg("Gamepass pagination complete")
			return nil
		}
		cursor = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.config.PageDelay):
		}
	}
}

// ListAllGamePasses fetches the universe's complete gamepass list,
// concatenating all pages in server order.
func (c *Client) ListAllGamePasses(ctx context.Context, universeID int64) ([]GamePass, error) {
	var all []GamePass
	err := c.GamePassPages(ctx, universeID, func(passes []GamePass) error {
		all = append(all, passes...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// passPage fetches a single gamepass list page. An empty returned cursor
// signals the last page.
func (c *Client) passPage(ctx context.Context, universeID int64, cursor string) ([]GamePass, string, error) {
	u := fmt.Sprintf("%s/v1/games/%d/game-passes?limit=100&sortOrder=Asc", c.config.GamesBaseURL, universeID)
	if cursor != "" {
		u += "&cursor=" + url.QueryEscape(cursor)
	}

	var page gamepassPage
	if err := c.getJSON(ctx, u, "/v1/games/game-passes", "Failed to fetch gamepasses", &page); err != nil {
		return nil, "", err
	}
	return page.Data, page.NextPageCursor, nil
}

// CreateGamePass creates a gamepass named after its price label and returns
// the new pass id. The description is intentionally empty.
func (c *Client) CreateGamePass(ctx context.Context, universeID int64, name, csrfToken string) (int64, error) {
	body, contentType, err := multipartForm(map[string]string{
		"name":        name,
		"description": "",
		"universeId":  strconv.FormatInt(universeID, 10),
	})
	if err != nil {
		return 0, fmt.Errorf("encode form: %w", err)
	}

	u := c.config.APIsBaseURL + "/game-passes/v1/game-passes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(csrfHeader, csrfToken)

	resp, err := c.do(req, "/game-passes/v1/game-passes", "Failed to create gamepass")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("Failed to create gamepass: decode response: %w", err)
	}

	c.logger.Debug().
		Int64("universe_id", universeID).
		Int64("game_pass_id", out.GamePassID).
		Str("name", name).
		Msg("Created gamepass")
	return out.GamePassID, nil
}

// SetSaleState lists or delists a gamepass. Listing requires a price and
// disables regional pricing; delisting sends only the flag.
func (c *Client) SetSaleState(ctx context.Context, gamePassID int64, csrfToken string, sale SaleState) error {
	fields := map[string]string{
		"isForSale": strconv.FormatBool(sale.ForSale),
	}
	failMsg := "Failed to take gamepass off sale"
	if sale.ForSale {
		fields["price"] = strconv.FormatInt(sale.Price, 10)
		fields["isRegionalPricingEnabled"] = "false"
		failMsg = "Failed to put gamepass on sale"
	}

	body, contentType, err := multipartForm(fields)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}

	u := fmt.Sprintf("%s/game-passes/v1/game-passes/%d/details", c.config.APIsBaseURL, gamePassID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(csrfHeader, csrfToken)

	resp, err := c.do(req, "/game-passes/v1/game-passes/details", failMsg)
	if err != nil {
		return err
	}
	resp.Body.Close()

	c.logger.Debug().
		Int64("game_pass_id", gamePassID).
		Bool("for_sale", sale.ForSale).
		Msg("Updated gamepass sale state")
	return nil
}

// multipartForm encodes string fields as a multipart/form-data body, matching
// the platform's expected encoding for the game-passes endpoints.
func multipartForm(fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
