// gamepassctl bulk-creates and bulk-delists gamepasses on the first game of
// the signed-in user's account.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rbxkit/gamepass-manager/internal/config"
	"github.com/rbxkit/gamepass-manager/pkg/batch"
	"github.com/rbxkit/gamepass-manager/pkg/cache"
	"github.com/rbxkit/gamepass-manager/pkg/identity"
	"github.com/rbxkit/gamepass-manager/pkg/logging"
	"github.com/rbxkit/gamepass-manager/pkg/roblox"
)

func main() {
	root := &cobra.Command{
		Use:           "gamepassctl",
		Short:         "Bulk gamepass management for your first Roblox game",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCreateCmd(), newRemoveAllCmd(), newListCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deps is the wired application: session, client, and orchestrator.
type deps struct {
	cfg     *config.Config
	logger  zerolog.Logger
	session *identity.Session
	client  *roblox.Client
}

// setup loads config, configures logging, resolves the session, and builds
// the platform client.
func setup(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	httpClient := &http.Client{Timeout: 30 * time.Second}

	var provider identity.Provider
	if cfg.Session.HasStaticSession() {
		provider = &identity.StaticProvider{Session: identity.Session{
			UserID:      cfg.Session.UserID,
			Username:    cfg.Session.Username,
			DisplayName: cfg.Session.DisplayName,
			CSRFToken:   cfg.Session.CSRFToken,
		}}
	} else {
		provider = identity.NewPageProvider(httpClient, cfg.Session.PageURL, cfg.Session.Cookie)
	}

	session, err := provider.Resolve(ctx)
	if err != nil {
		switch err {
		case identity.ErrNotLoggedIn:
			return nil, fmt.Errorf("not logged in: set ROBLOX_COOKIE (or the static session variables)")
		case identity.ErrNotRoblox:
			return nil, fmt.Errorf("ROBLOX_PAGE_URL does not point at a roblox.com page")
		}
		return nil, err
	}
	logger.Info().Str("user_id", session.UserID).Str("user", session.Name()).Msg("Signed in")

	var universeCache *cache.UniverseCache
	if cfg.Cache.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unreachable, universe cache disabled")
		} else {
			universeCache = cache.NewUniverseCache(redisClient, cache.DefaultTTL)
		}
	}

	client := roblox.New(roblox.Config{
		HTTPClient:    httpClient,
		GamesBaseURL:  cfg.API.GamesBaseURL,
		APIsBaseURL:   cfg.API.APIsBaseURL,
		Cookie:        cfg.Session.Cookie,
		UniverseCache: universeCache,
	})

	return &deps{cfg: cfg, logger: logger, session: session, client: client}, nil
}

// orchestrator builds the batch orchestrator with a log reporter.
func (d *deps) orchestrator() (*batch.Orchestrator, error) {
	return batch.New(batch.Config{
		API:      d.client,
		Reporter: &batch.LogReporter{Logger: logging.NewLogger("workflow")},
	})
}

func newCreateCmd() *cobra.Command {
	var common bool

	cmd := &cobra.Command{
		Use:   "create [amount]...",
		Short: "Create gamepasses at the given Robux prices, listing each for sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			var amounts []int64
			if common {
				amounts = batch.CommonAmounts
			} else {
				if len(args) == 0 {
					return fmt.Errorf("give at least one amount, or use --common")
				}
				for _, arg := range args {
					amount, err := strconv.ParseInt(arg, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid amount %q", arg)
					}
					if err := batch.ValidateAmount(amount); err != nil {
						return err
					}
					amounts = append(amounts, amount)
				}
			}

			ctx := cmd.Context()
			d, err := setup(ctx)
			if err != nil {
				return err
			}
			o, err := d.orchestrator()
			if err != nil {
				return err
			}

			report, err := o.CreateGamePasses(ctx, d.session, amounts)
			if err != nil {
				return err
			}

			printCreateReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&common, "common", false, "use the preset list of common Robux prices")
	return cmd
}

func newRemoveAllCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove-all",
		Short: "Take every on-sale gamepass of your first game off sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm("This will take ALL gamepasses in your first game off sale. Continue? [y/N] ") {
				fmt.Println("Aborted.")
				return nil
			}

			ctx := cmd.Context()
			d, err := setup(ctx)
			if err != nil {
				return err
			}
			o, err := d.orchestrator()
			if err != nil {
				return err
			}

			report, err := o.RemoveAllGamePasses(ctx, d.session)
			if err != nil {
				return err
			}

			printRemovalReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the gamepasses of your first game",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := setup(ctx)
			if err != nil {
				return err
			}

			games, err := d.client.ListGames(ctx, d.session.UserID)
			if err != nil {
				return err
			}
			if len(games) == 0 {
				return fmt.Errorf("no games found")
			}

			universeID, err := d.client.ResolveUniverseID(ctx, games[0].RootPlace.ID)
			if err != nil {
				return err
			}

			passes, err := d.client.ListAllGamePasses(ctx, universeID)
			if err != nil {
				return err
			}

			fmt.Printf("Game: %s (universe %d), %d gamepass(es)\n", games[0].Name, universeID, len(passes))
			for _, p := range passes {
				state := "off-sale"
				if p.IsForSale() && p.Price != nil {
					state = fmt.Sprintf("R$%d", *p.Price)
				}
				fmt.Printf("  #%-12d %-24s %s\n", p.ID, p.Name, state)
			}
			return nil
		},
	}
}

func printCreateReport(report *batch.BatchReport) {
	fmt.Println(report.Summary())
	for _, r := range report.Results {
		if r.Success {
			fmt.Printf("  ok   %s Robux (ID: %d)\n", r.Label, r.GamePassID)
		} else {
			fmt.Printf("  fail %s Robux: %s\n", r.Label, r.Error)
		}
	}
	if report.HitLimit {
		fmt.Println("Each experience allows at most 50 gamepasses on sale; remove some to create new ones.")
	}
}

func printRemovalReport(report *batch.RemovalReport) {
	fmt.Println(report.Summary())
	for _, r := range report.Results {
		if r.Success {
			fmt.Printf("  ok   %s (R$%d)\n", r.Label, r.Price)
		} else {
			fmt.Printf("  fail %s: %s\n", r.Label, r.Error)
		}
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
