package strategy

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wheelhouse/internal/logger"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// InstanceOutcome is one instance's end state within an orchestrated
// cycle.
type InstanceOutcome struct {
	InstanceName    string
	RunID           string
	Status          string
	Recommendations int
	Err             error
}

// Orchestrator runs every enabled strategy instance, optionally
// filtered by definition slug. One broken instance never blocks the
// rest.
type Orchestrator struct {
	store       store.Store
	executor    *Executor
	parallelism int
}

func NewOrchestrator(st store.Store, executor *Executor, parallelism int) *Orchestrator {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Orchestrator{store: st, executor: executor, parallelism: parallelism}
}

// RunAll executes all enabled instances and reports per-instance
// outcomes. slug narrows by strategy definition; dryRun evaluates
// without persisting recommendations. Every instance in the cycle
// evaluates against the same as-of timestamp.
func (o *Orchestrator) RunAll(ctx context.Context, slug, mode string, dryRun bool) ([]InstanceOutcome, error) {
	instances, err := o.store.Repos().Strategies().ListEnabledInstances(ctx, slug)
	if err != nil {
		return nil, err
	}
	asOf := time.Now().UTC()
	if len(instances) == 0 {
		logger.Infof("no enabled strategy instances%s", slugSuffix(slug))
		return nil, nil
	}
	outcomes := make([]InstanceOutcome, len(instances))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i := range instances {
		i := i
		instance := instances[i]
		g.Go(func() error {
			outcome := o.runOne(gctx, &instance, mode, dryRun, asOf)
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (o *Orchestrator) runOne(ctx context.Context, instance *model.StrategyInstance, mode string, dryRun bool, asOf time.Time) InstanceOutcome {
	outcome := InstanceOutcome{InstanceName: instance.Name}
	result, err := o.executor.RunInstance(ctx, instance, mode, dryRun, asOf)
	if result != nil && result.Run != nil {
		outcome.RunID = result.Run.ID
		outcome.Status = result.Run.Status
		outcome.Recommendations = len(result.Recommendations)
	}
	outcome.Err = err
	return outcome
}

func slugSuffix(slug string) string {
	if slug == "" {
		return ""
	}
	return " for slug " + slug
}
