package ingest

import (
	"context"
	"strings"

	"wheelhouse/internal/broker"
	"wheelhouse/internal/logger"
	"wheelhouse/internal/pkg/maputil"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// SyncPositions fetches open positions and appends one snapshot row
// per position. Instruments and contracts are resolved get-or-create,
// so the reference data converges no matter how often the job runs.
func (s *Syncer) SyncPositions(ctx context.Context, account model.Account) (Summary, error) {
	conn, err := s.connector(account)
	if err != nil {
		return Summary{}, err
	}
	positions, err := conn.FetchPositions(ctx)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.store.WithTx(ctx, func(repos store.Repos) error {
		portfolio, err := portfolioFor(ctx, repos, account)
		if err != nil {
			return err
		}
		for _, pos := range positions {
			instrument, _, err := resolveInstrument(ctx, repos, account, pos.Symbol, pos.Exchange, pos.AssetType, pos.Currency)
			if err != nil {
				return err
			}
			var contractID *string
			if pos.ConID != 0 {
				contract, err := resolveContract(ctx, repos, instrument, pos)
				if err != nil {
					return err
				}
				contractID = &contract.ID
			}
			row := &model.Position{
				ClientID:     account.ClientID,
				PortfolioID:  portfolio.ID,
				AccountID:    account.ID,
				InstrumentID: instrument.ID,
				ContractID:   contractID,
				Qty:          pos.Qty,
				AvgCost:      pos.AvgCost,
				MarketPrice:  pos.MarketPrice,
				MarketValue:  pos.MarketValue,
				AsOf:         pos.AsOf,
			}
			if err := repos.Positions().Create(ctx, row); err != nil {
				return err
			}
			summary.Created++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	logger.Infof("[sync] positions %s: %s", account.AccountCode, summary)
	return summary, nil
}

func resolveInstrument(ctx context.Context, repos store.Repos, account model.Account, symbol, exchange, assetType, currency string) (*model.Instrument, bool, error) {
	if currency == "" {
		currency = account.BaseCurrency
	}
	if assetType == "" {
		assetType = model.AssetEquity
	}
	instrument := &model.Instrument{
		Symbol:    strings.ToUpper(strings.TrimSpace(symbol)),
		Exchange:  strings.ToUpper(strings.TrimSpace(exchange)),
		AssetType: assetType,
		Currency:  strings.ToUpper(currency),
		Name:      symbol,
		IsActive:  true,
	}
	created, err := repos.Instruments().GetOrCreate(ctx, instrument)
	if err != nil {
		return nil, false, err
	}
	return instrument, created, nil
}

// resolveContract resolves the broker con id to a contract row. When
// the broker reports a known con id under a different underlier the
// contract is relinked rather than duplicated.
func resolveContract(ctx context.Context, repos store.Repos, instrument *model.Instrument, pos broker.PositionData) (*model.Contract, error) {
	contract := &model.Contract{
		ConID:        pos.ConID,
		InstrumentID: instrument.ID,
		SecType:      secTypeFor(pos.AssetType),
		Exchange:     instrument.Exchange,
		Currency:     instrument.Currency,
		LocalSymbol:  pos.Symbol,
	}
	applyContractRaw(contract, pos.Raw)
	created, err := repos.Contracts().GetOrCreate(ctx, contract)
	if err != nil {
		return nil, err
	}
	if !created && contract.InstrumentID != instrument.ID {
		if err := repos.Contracts().Relink(ctx, contract.ID, instrument.ID); err != nil {
			return nil, err
		}
		contract.InstrumentID = instrument.ID
	}
	return contract, nil
}

// applyContractRaw picks option/derivative attributes out of the raw
// vendor payload when the broker reports them.
func applyContractRaw(contract *model.Contract, raw map[string]any) {
	if len(raw) == 0 {
		return
	}
	if v := maputil.String(raw, "sec_type"); v != "" {
		contract.SecType = v
	}
	if v := maputil.String(raw, "last_trade_date"); v != "" {
		contract.LastTradeDate = v
	}
	if v, ok := maputil.Decimal(raw, "strike"); ok {
		contract.Strike = &v
	}
	if v := maputil.String(raw, "right"); v != "" {
		contract.Right = strings.ToUpper(v)
	}
	if v, ok := maputil.Int64(raw, "multiplier"); ok && v > 0 {
		contract.Multiplier = &v
	}
}

func secTypeFor(assetType string) string {
	switch assetType {
	case model.AssetOption:
		return "OPT"
	case model.AssetFuture:
		return "FUT"
	case model.AssetFX:
		return "CASH"
	default:
		return "STK"
	}
}
