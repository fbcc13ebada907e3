package strategy

import (
	"context"
	"fmt"
	"time"

	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// Context is the read-only world state handed to a strategy: the
// instance being run, its portfolio and account, the latest balances
// and the recent activity window. Building it mutates nothing, so a
// build can be repeated freely.
type Context struct {
	AsOf time.Time

	Client    *model.Client
	Portfolio *model.Portfolio
	Account   *model.Account

	Definition *model.StrategyDefinition
	Version    *model.StrategyVersion
	Instance   *model.StrategyInstance
	Config     map[string]any

	// Snapshot is the latest account snapshot. When the account has
	// never synced the balances are zero but the struct is present.
	Snapshot model.AccountSnapshot

	// Positions is the full position snapshot history for the
	// portfolio/account; CurrentPositions is the latest row per
	// contract-or-instrument key.
	Positions        []model.Position
	CurrentPositions []model.Position

	// OpenOrders excludes terminal statuses.
	OpenOrders []model.Order

	// Executions within the lookback window.
	Executions []model.Execution
}

// ContextBuilder assembles strategy contexts from the store.
type ContextBuilder struct {
	store    store.Store
	lookback time.Duration
}

func NewContextBuilder(st store.Store, lookbackDays int) *ContextBuilder {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &ContextBuilder{
		store:    st,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
	}
}

// Build resolves everything the instance needs to run, evaluating
// balances and the activity window as of asOf (zero means now,
// always coerced to UTC). An instance without a portfolio cannot be
// evaluated and fails with ConfigError.
func (b *ContextBuilder) Build(ctx context.Context, instance *model.StrategyInstance, asOf time.Time) (*Context, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = asOf.UTC()
	if instance.PortfolioID == nil || *instance.PortfolioID == "" {
		return nil, &ConfigError{
			Subject:    fmt.Sprintf("instance %s", instance.Name),
			Violations: []string{"no portfolio bound"},
		}
	}
	repos := b.store.Repos()
	portfolio, err := repos.Portfolios().Get(ctx, *instance.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("resolving portfolio: %w", err)
	}
	account, err := repos.Accounts().Get(ctx, portfolio.AccountID)
	if err != nil {
		return nil, fmt.Errorf("resolving broker account: %w", err)
	}
	client, err := repos.Clients().Get(ctx, instance.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolving client: %w", err)
	}
	version, err := repos.Strategies().GetVersion(ctx, instance.VersionID)
	if err != nil {
		return nil, fmt.Errorf("resolving strategy version: %w", err)
	}
	definition, err := repos.Strategies().GetDefinition(ctx, version.DefinitionID)
	if err != nil {
		return nil, fmt.Errorf("resolving strategy definition: %w", err)
	}

	sc := &Context{
		AsOf:       asOf,
		Client:     client,
		Portfolio:  portfolio,
		Account:    account,
		Definition: definition,
		Version:    version,
		Instance:   instance,
		Config:     map[string]any(instance.Config),
	}

	snapshot, err := repos.Snapshots().LatestForAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("loading account snapshot: %w", err)
	}
	if snapshot != nil {
		sc.Snapshot = *snapshot
	} else {
		sc.Snapshot = model.AccountSnapshot{
			ClientID:  account.ClientID,
			AccountID: account.ID,
			Currency:  account.BaseCurrency,
			AsOf:      asOf,
		}
	}

	if sc.Positions, err = repos.Positions().ListForPortfolio(ctx, portfolio.ID, account.ID); err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}
	if sc.CurrentPositions, err = repos.Positions().Current(ctx, portfolio.ID); err != nil {
		return nil, fmt.Errorf("loading current positions: %w", err)
	}
	if sc.OpenOrders, err = repos.Orders().ListOpenForAccount(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("loading open orders: %w", err)
	}
	cutoff := asOf.Add(-b.lookback)
	if sc.Executions, err = repos.Executions().ListSince(ctx, instance.ClientID, cutoff); err != nil {
		return nil, fmt.Errorf("loading executions: %w", err)
	}
	return sc, nil
}
