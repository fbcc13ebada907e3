package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Fake is an in-memory Broker for tests. Pre-load it with canned
// results for each fetch operation; every call echoes back a copy of
// what was loaded, which is what the ingestion idempotency tests rely
// on.
type Fake struct {
	AccountSnapshots []AccountSnapshotData
	Positions        []PositionData
	Orders           []OrderData
	Executions       []ExecutionData
	OptionEvents     []OptionEventData

	// Err, when set, is returned by every fetch call. Used to exercise
	// per-account failure isolation.
	Err error
}

var _ Broker = (*Fake)(nil)

func (f *Fake) FetchAccountSnapshots(ctx context.Context) ([]AccountSnapshotData, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]AccountSnapshotData, len(f.AccountSnapshots))
	copy(out, f.AccountSnapshots)
	return out, nil
}

func (f *Fake) FetchPositions(ctx context.Context) ([]PositionData, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]PositionData, len(f.Positions))
	copy(out, f.Positions)
	return out, nil
}

func (f *Fake) FetchOpenOrders(ctx context.Context) ([]OrderData, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]OrderData, len(f.Orders))
	copy(out, f.Orders)
	return out, nil
}

func (f *Fake) FetchExecutions(ctx context.Context) ([]ExecutionData, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]ExecutionData, len(f.Executions))
	copy(out, f.Executions)
	return out, nil
}

func (f *Fake) FetchOptionEvents(ctx context.Context) ([]OptionEventData, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]OptionEventData, len(f.OptionEvents))
	copy(out, f.OptionEvents)
	return out, nil
}

// SimpleAccountSnapshot builds a plausible snapshot for tests.
func SimpleAccountSnapshot(accountCode, currency string) AccountSnapshotData {
	return AccountSnapshotData{
		BrokerAccountCode: accountCode,
		Currency:          currency,
		AsOf:              time.Now().UTC(),
		Cash:              decimal.RequireFromString("100000"),
		BuyingPower:       decimal.RequireFromString("300000"),
		MaintenanceMargin: decimal.RequireFromString("50000"),
		UsedMargin:        decimal.RequireFromString("10000"),
		Extras:            map[string]any{"source": "fake"},
	}
}

// SimplePosition builds a plausible equity position for tests.
func SimplePosition(accountCode, symbol string) PositionData {
	return PositionData{
		BrokerAccountCode: accountCode,
		Symbol:            symbol,
		Exchange:          "NASDAQ",
		AssetType:         "equity",
		Currency:          "USD",
		ConID:             265598,
		Qty:               decimal.RequireFromString("10"),
		AvgCost:           decimal.RequireFromString("150.25"),
		MarketPrice:       decimal.RequireFromString("170.00"),
		MarketValue:       decimal.RequireFromString("1700.00"),
		AsOf:              time.Now().UTC(),
		Raw:               map[string]any{"source": "fake"},
	}
}
