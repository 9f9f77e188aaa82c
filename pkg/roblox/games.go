package roblox

import (
	"context"
	"fmt"

	"github.com/rbxkit/gamepass-manager/pkg/cache"
)

// Place is one playable location within a universe.
type Place struct {
	ID int64 `json:"id"`
}

// Game is a user-owned experience. Gamepass operations key off the universe
// id resolved from RootPlace, not off the game id itself.
type Game struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	RootPlace Place  `json:"rootPlace"`
}

type gamesResponse struct {
	Data []Game `json:"data"`
}

type universeResponse struct {
	UniverseID int64 `json:"universeId"`
}

// ListGames returns the user's games in the platform's sort order.
// An empty result is not an error; callers decide whether that is fatal.
func (c *Client) ListGames(ctx context.Context, userID string) ([]Game, error) {
	url := fmt.Sprintf("%s/v2/users/%s/games?sortOrder=Asc&limit=50", c.config.GamesBaseURL, userID)

	var out gamesResponse
	if err := c.getJSON(ctx, url, "/v2/users/games", "Failed to fetch games", &out); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("user_id", userID).Int("count", len(out.Data)).Msg("Fetched games")
	return out.Data, nil
}

// ResolveUniverseID maps a root place id to its universe id. The mapping is
// 1:1 and immutable, so a configured cache is consulted first.
func (c *Client) ResolveUniverseID(ctx context.Context, placeID int64) (int64, error) {
	if c.config.UniverseCache != nil {
		universeID, err := c.config.UniverseCache.Get(ctx, placeID)
		if err == nil {
			c.logger.Debug().
				Int64("place_id", placeID).
				Int64("universe_id", universeID).
				Msg("Universe resolved from cache")
			return universeID, nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Int64("place_id", placeID).Msg("Universe cache get error")
		}
	}

	url := fmt.Sprintf("%s/universes/v1/places/%d/universe", c.config.APIsBaseURL, placeID)
	failMsg := fmt.Sprintf("Failed to get universe ID for place %d", placeID)

	var out universeResponse
	if err := c.getJSON(ctx, url, "/universes/v1/places/universe", failMsg, &out); err != nil {
		return 0, err
	}

	if c.config.UniverseCache != nil {
		if err := c.config.UniverseCache.Set(ctx, placeID, out.UniverseID); err != nil {
			c.logger.Warn().Err(err).Int64("place_id", placeID).Msg("Universe cache set error")
		}
	}

	return out.UniverseID, nil
}
