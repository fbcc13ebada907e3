package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Normalized, broker-agnostic records. Every connector must return
// these types, never raw vendor payloads. All monetary fields are
// exact decimals; anything the mapper could not translate belongs in
// Extras / Raw.

// AccountSnapshotData is a normalized account-level snapshot.
type AccountSnapshotData struct {
	BrokerAccountCode string
	Currency          string
	AsOf              time.Time

	Cash              decimal.Decimal
	BuyingPower       decimal.Decimal
	MaintenanceMargin decimal.Decimal
	UsedMargin        decimal.Decimal

	Extras map[string]any
}

// PositionData is a normalized open position.
type PositionData struct {
	BrokerAccountCode string
	Symbol            string
	Exchange          string
	AssetType         string
	Currency          string

	// ConID is the broker contract identifier; 0 means the broker did
	// not report one.
	ConID int64

	Qty         decimal.Decimal
	AvgCost     decimal.Decimal
	MarketPrice decimal.Decimal
	MarketValue decimal.Decimal

	AsOf time.Time
	Raw  map[string]any
}

// OrderData is a normalized open (or recently closed) order.
type OrderData struct {
	BrokerAccountCode string
	Symbol            string
	ConID             int64

	BrokerOrderID       int64
	ParentBrokerOrderID int64

	Side       string // BUY / SELL
	OrderType  string // LMT / MKT / ...
	LimitPrice *decimal.Decimal
	AuxPrice   *decimal.Decimal
	TIF        string
	Status     string

	CreatedTS time.Time
	UpdatedTS time.Time
	Raw       map[string]any
}

// ExecutionData is a normalized fill.
type ExecutionData struct {
	BrokerAccountCode string
	Symbol            string
	ConID             int64

	// ExecID is globally unique per fill; it is the idempotency key
	// for execution ingestion.
	ExecID        string
	BrokerOrderID int64

	FillTS time.Time
	Qty    decimal.Decimal
	Price  decimal.Decimal
	Fee    decimal.Decimal
	Venue  string
	Raw    map[string]any
}

// Option lifecycle event kinds.
const (
	OptionEventAssignment = "assignment"
	OptionEventExercise   = "exercise"
	OptionEventExpiration = "expiration"
)

// OptionEventData is a normalized option lifecycle event. Brokers do
// not guarantee a unique id for these, so ingestion dedupes on a
// composite natural key.
type OptionEventData struct {
	BrokerAccountCode string
	Symbol            string
	ConID             int64

	EventType string
	EventTS   time.Time
	Qty       decimal.Decimal
	Notes     string
	Raw       map[string]any
}
