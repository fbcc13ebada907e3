// Package ingest pulls broker state through the connector contract
// and lands it in the store. Every job is idempotent: re-running it
// against unchanged broker data creates no new rows.
package ingest

import (
	"context"
	"fmt"
	"time"

	"wheelhouse/internal/broker"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// Summary counts what one sync job did.
type Summary struct {
	Created int
	Updated int
	Skipped int
}

// Total is the number of records the job saw.
func (s Summary) Total() int {
	return s.Created + s.Updated + s.Skipped
}

func (s Summary) String() string {
	return fmt.Sprintf("created=%d updated=%d skipped=%d", s.Created, s.Updated, s.Skipped)
}

// Syncer runs ingestion jobs for broker accounts. execLookbackDays
// bounds the execution window: fills older than it are out of scope
// and skipped.
type Syncer struct {
	store    store.Store
	registry *broker.Registry
	lookback time.Duration
}

func NewSyncer(st store.Store, registry *broker.Registry, execLookbackDays int) *Syncer {
	if execLookbackDays <= 0 {
		execLookbackDays = 7
	}
	return &Syncer{
		store:    st,
		registry: registry,
		lookback: time.Duration(execLookbackDays) * 24 * time.Hour,
	}
}

func accountRef(account model.Account) broker.AccountRef {
	return broker.AccountRef{
		Code:     account.AccountCode,
		Kind:     account.Kind,
		Currency: account.BaseCurrency,
		Metadata: map[string]any(account.Metadata),
	}
}

func (s *Syncer) connector(account model.Account) (broker.Broker, error) {
	return s.registry.Resolve(accountRef(account))
}

// portfolioFor returns the account's portfolio, creating a default one
// on first sync.
func portfolioFor(ctx context.Context, repos store.Repos, account model.Account) (*model.Portfolio, error) {
	portfolio, err := repos.Portfolios().FirstForAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if portfolio != nil {
		return portfolio, nil
	}
	portfolio = &model.Portfolio{
		ClientID:     account.ClientID,
		Name:         fmt.Sprintf("%s default", account.AccountCode),
		BaseCurrency: account.BaseCurrency,
		AccountID:    account.ID,
	}
	if err := repos.Portfolios().Create(ctx, portfolio); err != nil {
		return nil, err
	}
	return portfolio, nil
}
