package ingest

import (
	"context"

	"gorm.io/datatypes"

	"wheelhouse/internal/logger"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// SyncOrders fetches the broker's working-order view and upserts by
// (account, broker order id): first sight creates, later sights update
// the mutable fields in place.
func (s *Syncer) SyncOrders(ctx context.Context, account model.Account) (Summary, error) {
	conn, err := s.connector(account)
	if err != nil {
		return Summary{}, err
	}
	orders, err := conn.FetchOpenOrders(ctx)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.store.WithTx(ctx, func(repos store.Repos) error {
		for _, ord := range orders {
			if ord.BrokerAccountCode != "" && ord.BrokerAccountCode != account.AccountCode {
				logger.Warnf("[sync] order %d reported for %s while syncing %s, skipping",
					ord.BrokerOrderID, ord.BrokerAccountCode, account.AccountCode)
				summary.Skipped++
				continue
			}
			var contractID *string
			if ord.ConID != 0 {
				contract, err := repos.Contracts().FindByConID(ctx, ord.ConID)
				if err != nil {
					return err
				}
				if contract != nil {
					contractID = &contract.ID
				}
			}
			var parent *int64
			if ord.ParentBrokerOrderID != 0 {
				p := ord.ParentBrokerOrderID
				parent = &p
			}
			row := &model.Order{
				ClientID:            account.ClientID,
				AccountID:           account.ID,
				BrokerOrderID:       ord.BrokerOrderID,
				ParentBrokerOrderID: parent,
				ContractID:          contractID,
				Symbol:              ord.Symbol,
				Side:                ord.Side,
				OrderType:           ord.OrderType,
				LimitPrice:          ord.LimitPrice,
				AuxPrice:            ord.AuxPrice,
				TIF:                 ord.TIF,
				Status:              ord.Status,
				Raw:                 datatypes.JSONMap(ord.Raw),
				CreatedTS:           ord.CreatedTS,
				UpdatedTS:           ord.UpdatedTS,
			}
			created, err := repos.Orders().Upsert(ctx, row)
			if err != nil {
				return err
			}
			if created {
				summary.Created++
			} else {
				summary.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	logger.Infof("[sync] orders %s: %s", account.AccountCode, summary)
	return summary, nil
}
