package ingest

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"wheelhouse/internal/logger"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// SyncExecutions fetches recent fills and creates one row per unseen
// exec id. Fills already in the store are skipped, so overlapping
// fetch windows are harmless; fills older than the configured
// lookback are out of window and skipped too.
func (s *Syncer) SyncExecutions(ctx context.Context, account model.Account) (Summary, error) {
	conn, err := s.connector(account)
	if err != nil {
		return Summary{}, err
	}
	executions, err := conn.FetchExecutions(ctx)
	if err != nil {
		return Summary{}, err
	}
	cutoff := time.Now().UTC().Add(-s.lookback)
	var summary Summary
	err = s.store.WithTx(ctx, func(repos store.Repos) error {
		for _, exec := range executions {
			if exec.FillTS.Before(cutoff) {
				summary.Skipped++
				continue
			}
			exists, err := repos.Executions().ExistsByExecID(ctx, exec.ExecID)
			if err != nil {
				return err
			}
			if exists {
				summary.Skipped++
				continue
			}
			// A fill must hang off a known order; without one the row
			// would be unattributable, so it is skipped, not fatal.
			order, err := repos.Orders().FindByBrokerOrderID(ctx, account.ID, exec.BrokerOrderID)
			if err != nil {
				return err
			}
			if order == nil {
				logger.Warnf("[sync] execution %s references unknown order %d on %s, skipping",
					exec.ExecID, exec.BrokerOrderID, account.AccountCode)
				summary.Skipped++
				continue
			}
			row := &model.Execution{
				ClientID: account.ClientID,
				OrderID:  order.ID,
				ExecID:   exec.ExecID,
				FillTS:   exec.FillTS,
				Qty:      exec.Qty,
				Price:    exec.Price,
				Fee:      exec.Fee,
				Venue:    exec.Venue,
				Raw:      datatypes.JSONMap(exec.Raw),
			}
			if err := repos.Executions().Create(ctx, row); err != nil {
				return err
			}
			summary.Created++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	logger.Infof("[sync] executions %s: %s", account.AccountCode, summary)
	return summary, nil
}
