// Package store is the persistence boundary. The pipeline only sees
// these interfaces; gorm stays inside the sqlite implementation.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"wheelhouse/internal/store/model"
)

// Store is the entry point for database access. Each ingestion sync
// job and each strategy-run persistence step executes inside one
// WithTx call, so a mid-run failure rolls the whole unit back.
type Store interface {
	// Repos returns non-transactional repositories for reads and
	// standalone writes.
	Repos() Repos
	// WithTx runs fn inside one transaction; fn's repositories are
	// bound to that transaction. Returning an error rolls back.
	WithTx(ctx context.Context, fn func(Repos) error) error
	// Close closes the underlying connection.
	Close() error
}

// Repos bundles the per-entity repositories.
type Repos interface {
	Clients() ClientRepo
	Accounts() AccountRepo
	Portfolios() PortfolioRepo
	Instruments() InstrumentRepo
	Contracts() ContractRepo
	Snapshots() SnapshotRepo
	Positions() PositionRepo
	Orders() OrderRepo
	Executions() ExecutionRepo
	OptionEvents() OptionEventRepo
	Strategies() StrategyRepo
	Runs() RunRepo
	Recommendations() RecommendationRepo
	Opportunities() OpportunityRepo
}

type ClientRepo interface {
	Create(ctx context.Context, client *model.Client) error
	Get(ctx context.Context, id string) (*model.Client, error)
	FindByName(ctx context.Context, name string) (*model.Client, error)
}

type AccountRepo interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id string) (*model.Account, error)
	FindByCode(ctx context.Context, code string) (*model.Account, error)
	// List returns accounts filtered to the given kinds; no kinds
	// means all accounts.
	List(ctx context.Context, kinds ...string) ([]model.Account, error)
}

type PortfolioRepo interface {
	Create(ctx context.Context, portfolio *model.Portfolio) error
	Get(ctx context.Context, id string) (*model.Portfolio, error)
	// FirstForAccount returns the first portfolio bound to the broker
	// account, or nil when none exists.
	FirstForAccount(ctx context.Context, accountID string) (*model.Portfolio, error)
}

type InstrumentRepo interface {
	// GetOrCreate resolves by the (symbol, exchange, asset type,
	// currency) natural key, creating the row on first sight. Returns
	// whether a row was created.
	GetOrCreate(ctx context.Context, instrument *model.Instrument) (bool, error)
	Get(ctx context.Context, id string) (*model.Instrument, error)
	Count(ctx context.Context) (int64, error)
}

type ContractRepo interface {
	// GetOrCreate resolves by con id, creating with the given defaults
	// on first sight. Returns whether a row was created.
	GetOrCreate(ctx context.Context, contract *model.Contract) (bool, error)
	// FindByConID returns nil (no error) when the contract is unknown.
	FindByConID(ctx context.Context, conID int64) (*model.Contract, error)
	// Relink points an existing contract at a different instrument.
	Relink(ctx context.Context, contractID, instrumentID string) error
	Count(ctx context.Context) (int64, error)
}

type SnapshotRepo interface {
	Create(ctx context.Context, snapshot *model.AccountSnapshot) error
	// LatestForAccount returns nil (no error) when the account has no
	// snapshots yet.
	LatestForAccount(ctx context.Context, accountID string) (*model.AccountSnapshot, error)
	CountForAccount(ctx context.Context, accountID string) (int64, error)
}

type PositionRepo interface {
	Create(ctx context.Context, position *model.Position) error
	ListForPortfolio(ctx context.Context, portfolioID, accountID string) ([]model.Position, error)
	// Current returns the latest row per contract-or-instrument key,
	// which is how "current position" is derived from the append-only
	// snapshot log.
	Current(ctx context.Context, portfolioID string) ([]model.Position, error)
}

type OrderRepo interface {
	// Upsert creates on first sight of (account, broker order id) and
	// updates mutable fields in place afterwards. Returns whether a
	// row was created.
	Upsert(ctx context.Context, order *model.Order) (bool, error)
	// FindByBrokerOrderID returns the newest match by created_ts, or
	// nil when unknown.
	FindByBrokerOrderID(ctx context.Context, accountID string, brokerOrderID int64) (*model.Order, error)
	// ListOpenForAccount excludes terminal statuses.
	ListOpenForAccount(ctx context.Context, accountID string) ([]model.Order, error)
	CountForAccount(ctx context.Context, accountID string) (int64, error)
}

type ExecutionRepo interface {
	Create(ctx context.Context, execution *model.Execution) error
	ExistsByExecID(ctx context.Context, execID string) (bool, error)
	ListSince(ctx context.Context, clientID string, cutoff time.Time) ([]model.Execution, error)
	Count(ctx context.Context) (int64, error)
}

type OptionEventRepo interface {
	Create(ctx context.Context, event *model.OptionEvent) error
	// Exists checks the composite natural key.
	Exists(ctx context.Context, accountID string, contractID *string, eventType string, eventTS time.Time, qty decimal.Decimal) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type StrategyRepo interface {
	CreateDefinition(ctx context.Context, def *model.StrategyDefinition) error
	CreateVersion(ctx context.Context, version *model.StrategyVersion) error
	CreateInstance(ctx context.Context, instance *model.StrategyInstance) error
	GetDefinition(ctx context.Context, id string) (*model.StrategyDefinition, error)
	GetVersion(ctx context.Context, id string) (*model.StrategyVersion, error)
	GetInstance(ctx context.Context, id string) (*model.StrategyInstance, error)
	ListVersions(ctx context.Context) ([]model.StrategyVersion, error)
	// ListEnabledInstances optionally filters by definition slug.
	ListEnabledInstances(ctx context.Context, slug string) ([]model.StrategyInstance, error)
}

type RunRepo interface {
	Create(ctx context.Context, run *model.StrategyRun) error
	Update(ctx context.Context, run *model.StrategyRun) error
	ListForInstance(ctx context.Context, instanceID string, limit int) ([]model.StrategyRun, error)
}

type RecommendationRepo interface {
	Create(ctx context.Context, rec *model.Recommendation) error
	ListForInstance(ctx context.Context, instanceID string, limit int) ([]model.Recommendation, error)
	ListForInstanceSince(ctx context.Context, instanceID string, since time.Time) ([]model.Recommendation, error)
}

type OpportunityRepo interface {
	Create(ctx context.Context, opp *model.Opportunity) error
	Get(ctx context.Context, id string) (*model.Opportunity, error)
}
