package ingest

import (
	"context"

	"wheelhouse/internal/logger"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// SyncOptionEvents fetches option lifecycle events and creates one row
// per unseen event. Brokers report no stable event id, so dedupe runs
// on the composite key (account, contract, type, ts, qty).
func (s *Syncer) SyncOptionEvents(ctx context.Context, account model.Account) (Summary, error) {
	conn, err := s.connector(account)
	if err != nil {
		return Summary{}, err
	}
	events, err := conn.FetchOptionEvents(ctx)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.store.WithTx(ctx, func(repos store.Repos) error {
		for _, event := range events {
			var contractID *string
			if event.ConID != 0 {
				contract, err := repos.Contracts().FindByConID(ctx, event.ConID)
				if err != nil {
					return err
				}
				if contract != nil {
					contractID = &contract.ID
				}
			}
			exists, err := repos.OptionEvents().Exists(ctx, account.ID, contractID, event.EventType, event.EventTS, event.Qty)
			if err != nil {
				return err
			}
			if exists {
				summary.Skipped++
				continue
			}
			row := &model.OptionEvent{
				ClientID:   account.ClientID,
				AccountID:  account.ID,
				ContractID: contractID,
				EventType:  event.EventType,
				EventTS:    event.EventTS,
				Qty:        event.Qty,
				Notes:      event.Notes,
			}
			if err := repos.OptionEvents().Create(ctx, row); err != nil {
				return err
			}
			summary.Created++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	logger.Infof("[sync] option events %s: %s", account.AccountCode, summary)
	return summary, nil
}
