package ingest

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"wheelhouse/internal/logger"
	"wheelhouse/internal/store/model"
)

// AccountResult is the outcome of the full job set for one account.
type AccountResult struct {
	AccountCode  string
	Kind         string
	Snapshots    Summary
	Positions    Summary
	Orders       Summary
	Executions   Summary
	OptionEvents Summary
	Err          error
}

// SyncAll runs every ingestion job for every matching account.
// Accounts sync concurrently up to the given parallelism; one
// account's failure never blocks the others.
func (s *Syncer) SyncAll(ctx context.Context, kinds []string, parallelism int) ([]AccountResult, error) {
	accounts, err := s.store.Repos().Accounts().List(ctx, kinds...)
	if err != nil {
		return nil, err
	}
	if parallelism <= 0 {
		parallelism = 1
	}
	results := make([]AccountResult, len(accounts))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			res := s.syncAccount(gctx, account)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			// Failures are captured in the result, not returned, so a
			// broken account does not cancel the group.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// syncAccount runs the job set in dependency order: positions before
// orders (contract resolution), orders before executions (order
// linkage). The first failing job aborts the rest for this account.
func (s *Syncer) syncAccount(ctx context.Context, account model.Account) AccountResult {
	res := AccountResult{AccountCode: account.AccountCode, Kind: account.Kind}
	steps := []struct {
		name string
		run  func() (Summary, error)
		dst  *Summary
	}{
		{"account_summary", func() (Summary, error) { return s.SyncAccountSummary(ctx, account) }, &res.Snapshots},
		{"positions", func() (Summary, error) { return s.SyncPositions(ctx, account) }, &res.Positions},
		{"orders", func() (Summary, error) { return s.SyncOrders(ctx, account) }, &res.Orders},
		{"executions", func() (Summary, error) { return s.SyncExecutions(ctx, account) }, &res.Executions},
		{"option_events", func() (Summary, error) { return s.SyncOptionEvents(ctx, account) }, &res.OptionEvents},
	}
	for _, step := range steps {
		summary, err := step.run()
		if err != nil {
			logger.Errorf("[sync] %s %s failed: %v", step.name, account.AccountCode, err)
			res.Err = err
			return res
		}
		*step.dst = summary
	}
	return res
}
