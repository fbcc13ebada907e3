package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"gorm.io/datatypes"

	"wheelhouse/internal/logger"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// debugEntry is one line of a run's structured debug log.
type debugEntry struct {
	TS    string `json:"ts"`
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

// runLog is the append-only debug log attached to one run row.
type runLog struct {
	entries []debugEntry
}

func (l *runLog) logf(level, format string, args ...any) {
	l.entries = append(l.entries, debugEntry{
		TS:    time.Now().UTC().Format(time.RFC3339Nano),
		Level: level,
		Msg:   fmt.Sprintf(format, args...),
	})
}

func (l *runLog) json() datatypes.JSON {
	if len(l.entries) == 0 {
		return datatypes.JSON("[]")
	}
	raw, err := json.Marshal(l.entries)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

// RunResult is what one instance run produced.
type RunResult struct {
	Run             *model.StrategyRun
	Actions         []PlannedAction
	Recommendations []model.Recommendation
}

// Executor drives single strategy runs through the full lifecycle:
// run row in_progress, resolve, build context, evaluate, safety
// filter, persist, terminal status. The run row lives outside the
// evaluation transaction so a failed run still leaves its telemetry.
type Executor struct {
	store    store.Store
	registry *Registry
	builder  *ContextBuilder
	limits   SafetyLimits
}

func NewExecutor(st store.Store, registry *Registry, builder *ContextBuilder, limits SafetyLimits) *Executor {
	return &Executor{store: st, registry: registry, builder: builder, limits: limits}
}

// RunInstance executes one enabled instance, evaluating the world as
// of asOf (zero means now). On failure the run row is finalized with
// status error, the message and stack trace are stored, and the error
// is returned to the caller. Every run leaves a run row; dryRun only
// skips persisting recommendations.
func (e *Executor) RunInstance(ctx context.Context, instance *model.StrategyInstance, mode string, dryRun bool, asOf time.Time) (*RunResult, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = asOf.UTC()
	run := &model.StrategyRun{
		InstanceID: instance.ID,
		RunTS:      asOf,
		Mode:       mode,
		Status:     model.RunStatusInProgress,
	}
	if err := e.store.Repos().Runs().Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run row: %w", err)
	}

	started := time.Now()
	log := &runLog{}
	result, err := e.evaluate(ctx, instance, run, log, dryRun, asOf)
	duration := time.Since(started)

	run.DurationMS = duration.Milliseconds()
	run.DebugLog = log.json()
	if err != nil {
		run.Status = model.RunStatusError
		run.ErrorTrace = fmt.Sprintf("%v\n%s", err, debug.Stack())
		run.Stats = datatypes.JSONMap{"error": err.Error()}
		if updateErr := e.store.Repos().Runs().Update(ctx, run); updateErr != nil {
			logger.Errorf("finalizing failed run %s: %v", run.ID, updateErr)
		}
		logger.Errorf("strategy run %s (%s) failed: %v", instance.Name, mode, err)
		return &RunResult{Run: run}, err
	}

	run.Status = model.RunStatusOK
	run.Stats = datatypes.JSONMap{
		"actions_emitted":   len(result.Actions),
		"recommendations":   len(result.Recommendations),
		"duration_ms":       run.DurationMS,
		"portfolio_scanned": true,
	}
	if err := e.store.Repos().Runs().Update(ctx, run); err != nil {
		return nil, fmt.Errorf("finalizing run row: %w", err)
	}
	result.Run = run
	logger.Infof("strategy run %s (%s) ok: %d recommendation(s) in %s",
		instance.Name, mode, len(result.Recommendations), duration)
	return result, nil
}

func (e *Executor) evaluate(ctx context.Context, instance *model.StrategyInstance, run *model.StrategyRun, log *runLog, dryRun bool, asOf time.Time) (result *RunResult, err error) {
	// A panicking strategy must not take the process down; it becomes
	// a status=error run with the panic in the trace.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()

	sc, err := e.builder.Build(ctx, instance, asOf)
	if err != nil {
		return nil, err
	}
	log.logf("info", "context built: %d positions, %d open orders, %d executions",
		len(sc.CurrentPositions), len(sc.OpenOrders), len(sc.Executions))

	if err := e.registry.ValidateInstanceConfig(sc.Definition, sc.Version, instance); err != nil {
		return nil, err
	}
	impl, err := e.registry.Resolve(sc.Version)
	if err != nil {
		return nil, err
	}

	actions, err := impl.Evaluate(ctx, sc)
	if err != nil {
		return nil, err
	}
	log.logf("info", "strategy emitted %d action(s)", len(actions))

	kept, notes := ApplySafetyLimits(actions, e.limits)
	for _, note := range notes {
		log.logf("warn", "safety: %s", note)
	}

	result = &RunResult{Actions: kept}
	if dryRun {
		log.logf("info", "dry run: %d action(s) not persisted", len(kept))
		return result, nil
	}
	err = e.store.WithTx(ctx, func(repos store.Repos) error {
		recs, err := RecordRecommendations(ctx, repos, sc, kept)
		if err != nil {
			return err
		}
		result.Recommendations = recs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persisting recommendations: %w", err)
	}
	log.logf("info", "persisted %d recommendation(s)", len(result.Recommendations))
	return result, nil
}
