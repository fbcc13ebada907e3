package ingest

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"wheelhouse/internal/broker"
	"wheelhouse/internal/logger"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// SyncAccountSummary fetches the account snapshot and appends one row.
// The snapshot table is a time series, so every sync is a create. An
// empty broker response is an error: the connector contract promises
// at least one snapshot per reachable account.
func (s *Syncer) SyncAccountSummary(ctx context.Context, account model.Account) (Summary, error) {
	conn, err := s.connector(account)
	if err != nil {
		return Summary{}, err
	}
	snapshots, err := conn.FetchAccountSnapshots(ctx)
	if err != nil {
		return Summary{}, err
	}
	if len(snapshots) == 0 {
		return Summary{}, fmt.Errorf("broker returned no snapshot for account %s", account.AccountCode)
	}
	var summary Summary
	err = s.store.WithTx(ctx, func(repos store.Repos) error {
		row := snapshotRow(account, snapshots[0])
		if err := repos.Snapshots().Create(ctx, row); err != nil {
			return err
		}
		summary.Created++
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	logger.Infof("[sync] account summary %s: %s", account.AccountCode, summary)
	return summary, nil
}

func snapshotRow(account model.Account, snap broker.AccountSnapshotData) *model.AccountSnapshot {
	currency := snap.Currency
	if currency == "" {
		currency = account.BaseCurrency
	}
	return &model.AccountSnapshot{
		ClientID:          account.ClientID,
		AccountID:         account.ID,
		AsOf:              snap.AsOf,
		Currency:          currency,
		Cash:              snap.Cash,
		BuyingPower:       snap.BuyingPower,
		MaintenanceMargin: snap.MaintenanceMargin,
		UsedMargin:        snap.UsedMargin,
		Extras:            datatypes.JSONMap(snap.Extras),
	}
}
