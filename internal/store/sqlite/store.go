// Package sqlite implements the store contract with gorm + SQLite.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates
// the schema.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	return openDSN(dsn)
}

// OpenMemory opens a process-private in-memory database. Each call
// gets its own database; the shared cache only spans the connection
// pool. Used by tests.
func OpenMemory() (*Store, error) {
	name := uuid.NewString()
	return openDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

func openDSN(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	models := []any{
		&model.Client{},
		&model.Account{},
		&model.Portfolio{},
		&model.Instrument{},
		&model.Contract{},
		&model.AccountSnapshot{},
		&model.Position{},
		&model.Order{},
		&model.Execution{},
		&model.OptionEvent{},
		&model.StrategyDefinition{},
		&model.StrategyVersion{},
		&model.StrategyInstance{},
		&model.StrategyRun{},
		&model.Opportunity{},
		&model.Recommendation{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		// SQLite + WAL: keep contention low.
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

func (s *Store) Repos() store.Repos {
	return repos{db: s.db}
}

func (s *Store) WithTx(ctx context.Context, fn func(store.Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos{db: tx})
	})
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// repos binds the repository set to one *gorm.DB, which is either the
// root connection or a transaction handle.
type repos struct {
	db *gorm.DB
}

var _ store.Repos = repos{}

func (r repos) Clients() store.ClientRepo                 { return clientRepo{r.db} }
func (r repos) Accounts() store.AccountRepo               { return accountRepo{r.db} }
func (r repos) Portfolios() store.PortfolioRepo           { return portfolioRepo{r.db} }
func (r repos) Instruments() store.InstrumentRepo         { return instrumentRepo{r.db} }
func (r repos) Contracts() store.ContractRepo             { return contractRepo{r.db} }
func (r repos) Snapshots() store.SnapshotRepo             { return snapshotRepo{r.db} }
func (r repos) Positions() store.PositionRepo             { return positionRepo{r.db} }
func (r repos) Orders() store.OrderRepo                   { return orderRepo{r.db} }
func (r repos) Executions() store.ExecutionRepo           { return executionRepo{r.db} }
func (r repos) OptionEvents() store.OptionEventRepo       { return optionEventRepo{r.db} }
func (r repos) Strategies() store.StrategyRepo            { return strategyRepo{r.db} }
func (r repos) Runs() store.RunRepo                       { return runRepo{r.db} }
func (r repos) Recommendations() store.RecommendationRepo { return recommendationRepo{r.db} }
func (r repos) Opportunities() store.OpportunityRepo      { return opportunityRepo{r.db} }
