// Package batch drives the sequential create and remove-all gamepass
// workflows: one item at a time, per-item failure classification, progress
// reporting after every item, and a terminal report per run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rbxkit/gamepass-manager/pkg/identity"
	"github.com/rbxkit/gamepass-manager/pkg/roblox"
)

// Prometheus metrics for workflow runs.
var (
	batchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_runs_total",
		Help: "Workflow runs by workflow",
	}, []string{"workflow"})

	batchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_items_total",
		Help: "Items processed by workflow and outcome",
	}, []string{"workflow", "outcome"})

	batchLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_limit_hits_total",
		Help: "Create runs aborted by the gamepass limit",
	})

	batchRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batch_run_duration_seconds",
		Help:    "End-to-end workflow run duration",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	}, []string{"workflow"})
)

// ErrBusy is returned when a workflow is invoked while another run is in
// progress. The second invocation does nothing.
var ErrBusy = errors.New("a workflow is already running")

// errSkippedLimit is the recorded reason for items never attempted after a
// limit hit.
const errSkippedLimit = "Skipped (limit reached)"

// API is the platform client surface the orchestrator drives.
type API interface {
	ListGames(ctx context.Context, userID string) ([]roblox.Game, error)
	ResolveUniverseID(ctx context.Context, placeID int64) (int64, error)
	ListAllGamePasses(ctx context.Context, universeID int64) ([]roblox.GamePass, error)
	CreateGamePass(ctx context.Context, universeID int64, name, csrfToken string) (int64, error)
	SetSaleState(ctx context.Context, gamePassID int64, csrfToken string, sale roblox.SaleState) error
}

// Orchestrator runs one workflow at a time end-to-end. The in-progress flag
// is the only shared mutable state; it rejects overlapping invocations and is
// released on every exit path.
type Orchestrator struct {
	api        API
	reporter   Reporter
	pacer      Pacer
	classifier roblox.LimitClassifier
	inProgress atomic.Bool
	logger     zerolog.Logger
}

// Config holds orchestrator dependencies. Zero-value fields get defaults.
type Config struct {
	// API is required.
	API API

	// Reporter observes progress and events (default: NopReporter).
	Reporter Reporter

	// Pacer applies the fixed inter-item delays (default: SleepPacer).
	Pacer Pacer

	// Classifier decides limit-reached (default: roblox.IsLimitError).
	Classifier roblox.LimitClassifier
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	if cfg.Pacer == nil {
		cfg.Pacer = SleepPacer{}
	}
	if cfg.Classifier == nil {
		cfg.Classifier = roblox.IsLimitError
	}

	return &Orchestrator{
		api:        cfg.API,
		reporter:   cfg.Reporter,
		pacer:      cfg.Pacer,
		classifier: cfg.Classifier,
		logger:     log.With().Str("component", "batch").Logger(),
	}, nil
}

// acquire claims the in-progress flag. The returned release must run on all
// exit paths.
func (o *Orchestrator) acquire() (release func(), err error) {
	if !o.inProgress.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { o.inProgress.Store(false) }, nil
}

// resolveTarget fetches the session's games and resolves the universe of the
// first one. The first listed game is always the target.
func (o *Orchestrator) resolveTarget(ctx context.Context, session *identity.Session, logger zerolog.Logger) (universeID int64, gameName string, err error) {
	o.reporter.Event(EventInfo, "Fetching your games...")

	games, err := o.api.ListGames(ctx, session.UserID)
	if err != nil {
		return 0, "", err
	}
	if len(games) == 0 {
		return 0, "", errors.New("no games found: you need at least one game to manage gamepasses")
	}

	o.reporter.Event(EventSuccess, fmt.Sprintf("Found %d game(s)", len(games)))

	target := games[0]
	universeID, err = o.api.ResolveUniverseID(ctx, target.RootPlace.ID)
	if err != nil {
		return 0, "", err
	}

	o.reporter.Event(EventInfo, fmt.Sprintf("Using game: %s", target.Name))
	logger.Info().
		Int64("game_id", target.ID).
		Int64("universe_id", universeID).
		Str("game", target.Name).
		Msg("Target resolved")

	return universeID, target.Name, nil
}

// CreateGamePasses creates one gamepass per amount, in order, listing each
// for sale as it is created. A limit-classified failure records the current
// item as "Limit reached", marks every remaining item skipped, and stops.
func (o *Orchestrator) CreateGamePasses(ctx context.Context, session *identity.Session, amounts []int64) (*BatchReport, error) {
	if len(amounts) == 0 {
		return nil, errors.New("no amounts given")
	}
	for _, amount := range amounts {
		if err := ValidateAmount(amount); err != nil {
			return nil, err
		}
	}

	release, err := o.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	logger := o.logger.With().
		Str("run_id", uuid.NewString()).
		Str("workflow", "create").
		Logger()
	logger.Info().Int("items", len(amounts)).Msg("Create workflow started")

	batchRunsTotal.WithLabelValues("create").Inc()
	start := time.Now()
	defer func() {
		batchRunDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())
	}()

	universeID, _, err := o.resolveTarget(ctx, session, logger)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{}
	total := len(amounts)

	for i, amount := range amounts {
		label := strconv.FormatInt(amount, 10)

		gamePassID, itemErr := o.createAndList(ctx, universeID, amount, session.CSRFToken)
		if itemErr != nil {
			if o.classifier(itemErr) {
				o.reporter.Event(EventError, "Gamepass limit reached for this experience")
				logger.Warn().Int64("amount", amount).Msg("Limit reached, skipping remaining items")

				report.HitLimit = true
				batchLimitHits.Inc()
				batchItemsTotal.WithLabelValues("create", "failure").Inc()
				report.Results = append(report.Results, OperationResult{
					Label: label,
					Price: amount,
					Error: "Limit reached",
				})
				for _, rest := range amounts[i+1:] {
					batchItemsTotal.WithLabelValues("create", "skipped").Inc()
					report.Results = append(report.Results, OperationResult{
						Label: strconv.FormatInt(rest, 10),
						Price: rest,
						Error: errSkippedLimit,
					})
				}
				break
			}

			o.reporter.Event(EventError, fmt.Sprintf("Failed to create %d Robux gamepass: %s", amount, itemErr.Error()))
			logger.Warn().Err(itemErr).Int64("amount", amount).Msg("Item failed")
			batchItemsTotal.WithLabelValues("create", "failure").Inc()
			report.Results = append(report.Results, OperationResult{
				Label: label,
				Price: amount,
				Error: itemErr.Error(),
			})
		} else {
			batchItemsTotal.WithLabelValues("create", "success").Inc()
			report.SuccessCount++
			report.Results = append(report.Results, OperationResult{
				Label:      label,
				GamePassID: gamePassID,
				Price:      amount,
				Success:    true,
			})
		}

		o.reporter.Progress(progressAt(i+1, total))

		if i+1 < total {
			if err := o.pacer.Pause(ctx, CreateDelay); err != nil {
				return report, err
			}
		}
	}

	logger.Info().
		Int("success", report.SuccessCount).
		Int("total", len(report.Results)).
		Bool("hit_limit", report.HitLimit).
		Msg("Create workflow finished")
	return report, nil
}

// createAndList creates one gamepass and immediately lists it for sale.
// A sale-state failure fails the whole item even though the pass now exists;
// the orphaned pass id is logged so it can be cleaned up.
func (o *Orchestrator) createAndList(ctx context.Context, universeID, amount int64, csrfToken string) (int64, error) {
	o.reporter.Event(EventInfo, fmt.Sprintf("Creating gamepass for %d Robux...", amount))

	gamePassID, err := o.api.CreateGamePass(ctx, universeID, strconv.FormatInt(amount, 10), csrfToken)
	if err != nil {
		return 0, err
	}
	o.reporter.Event(EventSuccess, fmt.Sprintf("Created gamepass #%d", gamePassID))

	if err := o.api.SetSaleState(ctx, gamePassID, csrfToken, roblox.SaleState{ForSale: true, Price: amount}); err != nil {
		o.logger.Warn().
			Int64("game_pass_id", gamePassID).
			Msg("Gamepass created but not listed")
		return 0, err
	}
	o.reporter.Event(EventSuccess, fmt.Sprintf("Listed gamepass for %d Robux", amount))

	return gamePassID, nil
}

// RemoveAllGamePasses delists every on-sale gamepass of the session's first
// game. Passes already off-sale (nil product id) are counted as skipped and
// never touched.
func (o *Orchestrator) RemoveAllGamePasses(ctx context.Context, session *identity.Session) (*RemovalReport, error) {
	release, err := o.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	logger := o.logger.With().
		Str("run_id", uuid.NewString()).
		Str("workflow", "remove_all").
		Logger()
	logger.Info().Msg("Remove-all workflow started")

	batchRunsTotal.WithLabelValues("remove_all").Inc()
	start := time.Now()
	defer func() {
		batchRunDuration.WithLabelValues("remove_all").Observe(time.Since(start).Seconds())
	}()

	universeID, _, err := o.resolveTarget(ctx, session, logger)
	if err != nil {
		return nil, err
	}

	o.reporter.Event(EventInfo, "Fetching all gamepasses...")
	passes, err := o.api.ListAllGamePasses(ctx, universeID)
	if err != nil {
		return nil, err
	}
	if len(passes) == 0 {
		return nil, errors.New("no gamepasses found in this game")
	}

	onSale := make([]roblox.GamePass, 0, len(passes))
	for _, p := range passes {
		if p.IsForSale() {
			onSale = append(onSale, p)
		}
	}
	skipped := len(passes) - len(onSale)

	if skipped > 0 {
		o.reporter.Event(EventInfo, fmt.Sprintf("Found %d gamepass(es) total (%d already off-sale)", len(passes), skipped))
	} else {
		o.reporter.Event(EventSuccess, fmt.Sprintf("Found %d gamepass(es)", len(passes)))
	}

	if len(onSale) == 0 {
		return nil, fmt.Errorf("all %d gamepasses are already off-sale", skipped)
	}
	o.reporter.Event(EventSuccess, fmt.Sprintf("%d gamepass(es) to remove", len(onSale)))

	report := &RemovalReport{SkippedCount: skipped}
	total := len(onSale)

	for i, pass := range onSale {
		result := OperationResult{Label: pass.Name, GamePassID: pass.ID}
		if pass.Price != nil {
			result.Price = *pass.Price
		}

		o.reporter.Event(EventInfo, fmt.Sprintf("Removing gamepass: %s (ID: %d)...", pass.Name, pass.ID))
		if err := o.api.SetSaleState(ctx, pass.ID, session.CSRFToken, roblox.SaleState{ForSale: false}); err != nil {
			o.reporter.Event(EventError, fmt.Sprintf("Failed to remove %s: %s", pass.Name, err.Error()))
			logger.Warn().Err(err).Int64("game_pass_id", pass.ID).Msg("Item failed")
			batchItemsTotal.WithLabelValues("remove_all", "failure").Inc()
			result.Error = err.Error()
		} else {
			o.reporter.Event(EventSuccess, fmt.Sprintf("Removed: %s", pass.Name))
			batchItemsTotal.WithLabelValues("remove_all", "success").Inc()
			result.Success = true
			report.SuccessCount++
		}
		report.Results = append(report.Results, result)

		o.reporter.Progress(progressAt(i+1, total))

		if i+1 < total {
			if err := o.pacer.Pause(ctx, RemoveDelay); err != nil {
				return report, err
			}
		}
	}

	logger.Info().
		Int("success", report.SuccessCount).
		Int("skipped", report.SkippedCount).
		Int("total", len(report.Results)).
		Msg("Remove-all workflow finished")
	return report, nil
}

// progressAt computes the progress tick for item index of total.
func progressAt(index, total int) Progress {
	return Progress{
		Index:   index,
		Total:   total,
		Percent: int(math.Round(float64(index) / float64(total) * 100)),
	}
}
