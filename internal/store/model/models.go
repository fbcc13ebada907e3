// Package model defines the persisted entities. Ingestion rows
// (snapshots, positions, executions, option events) are append-only;
// orders are the one ingested entity mutated in place.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base carries the uuid primary key and bookkeeping timestamps shared
// by every table.
type Base struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Broker account kinds.
const (
	KindIBKR      = "IBKR"
	KindIBKRPaper = "IBKR-PAPER"
	KindSimulated = "SIM"
)

// Client is the owning tenant for accounts, portfolios and strategy
// instances.
type Client struct {
	Base
	Name     string            `gorm:"column:name;uniqueIndex"`
	IsActive bool              `gorm:"column:is_active"`
	Settings datatypes.JSONMap `gorm:"column:settings;type:TEXT"`
}

func (Client) TableName() string { return "clients" }

// Account is an external trading account identified by code and kind.
type Account struct {
	Base
	ClientID     string            `gorm:"column:client_id;index;uniqueIndex:idx_account_identity,priority:1"`
	Kind         string            `gorm:"column:kind;uniqueIndex:idx_account_identity,priority:2"`
	AccountCode  string            `gorm:"column:account_code;index;uniqueIndex:idx_account_identity,priority:3"`
	BaseCurrency string            `gorm:"column:base_currency"`
	Nickname     string            `gorm:"column:nickname"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata;type:TEXT"`
}

func (Account) TableName() string { return "broker_accounts" }

// Portfolio groups positions and strategy instances under one account.
type Portfolio struct {
	Base
	ClientID     string            `gorm:"column:client_id;index"`
	Name         string            `gorm:"column:name"`
	BaseCurrency string            `gorm:"column:base_currency"`
	AccountID    string            `gorm:"column:broker_account_id;index"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata;type:TEXT"`
}

func (Portfolio) TableName() string { return "portfolios" }

// Instrument asset types.
const (
	AssetEquity = "equity"
	AssetETF    = "etf"
	AssetOption = "option"
	AssetFuture = "future"
	AssetCrypto = "crypto"
	AssetFX     = "fx"
)

// Instrument is a tradable underlying keyed by
// (symbol, exchange, asset type, currency).
type Instrument struct {
	Base
	Symbol    string `gorm:"column:symbol;uniqueIndex:idx_instrument_key,priority:1"`
	Exchange  string `gorm:"column:exchange;uniqueIndex:idx_instrument_key,priority:2"`
	AssetType string `gorm:"column:asset_type;uniqueIndex:idx_instrument_key,priority:3"`
	Currency  string `gorm:"column:currency;uniqueIndex:idx_instrument_key,priority:4"`
	Name      string `gorm:"column:name"`
	IsActive  bool   `gorm:"column:is_active"`
}

func (Instrument) TableName() string { return "instruments" }

// Contract is a broker-specific tradable unit tied to one instrument
// via the broker contract id.
type Contract struct {
	Base
	ConID         int64             `gorm:"column:con_id;uniqueIndex"`
	InstrumentID  string            `gorm:"column:instrument_id;index"`
	SecType       string            `gorm:"column:sec_type"`
	Exchange      string            `gorm:"column:exchange"`
	Currency      string            `gorm:"column:currency"`
	LocalSymbol   string            `gorm:"column:local_symbol"`
	LastTradeDate string            `gorm:"column:last_trade_date"`
	Strike        *decimal.Decimal  `gorm:"column:strike;type:decimal(20,6)"`
	Right         string            `gorm:"column:opt_right"`
	Multiplier    *int64            `gorm:"column:multiplier"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata;type:TEXT"`
}

func (Contract) TableName() string { return "contracts" }

// AccountSnapshot is a point-in-time account state row. Append-only.
type AccountSnapshot struct {
	Base
	ClientID          string            `gorm:"column:client_id;index"`
	AccountID         string            `gorm:"column:broker_account_id;index:idx_snapshot_account_asof,priority:1"`
	AsOf              time.Time         `gorm:"column:asof_ts;index:idx_snapshot_account_asof,priority:2"`
	Currency          string            `gorm:"column:currency"`
	Cash              decimal.Decimal   `gorm:"column:cash;type:decimal(20,6)"`
	BuyingPower       decimal.Decimal   `gorm:"column:buying_power;type:decimal(20,6)"`
	MaintenanceMargin decimal.Decimal   `gorm:"column:maintenance_margin;type:decimal(20,6)"`
	UsedMargin        decimal.Decimal   `gorm:"column:used_margin;type:decimal(20,6)"`
	Extras            datatypes.JSONMap `gorm:"column:extras;type:TEXT"`
}

func (AccountSnapshot) TableName() string { return "account_snapshots" }

// Position is an append-only position snapshot row; "current" state is
// always the latest row per contract-or-instrument key.
type Position struct {
	Base
	ClientID     string          `gorm:"column:client_id;index"`
	PortfolioID  string          `gorm:"column:portfolio_id;index"`
	AccountID    string          `gorm:"column:broker_account_id;index"`
	InstrumentID string          `gorm:"column:instrument_id;index"`
	ContractID   *string         `gorm:"column:contract_id;index"`
	Qty          decimal.Decimal `gorm:"column:qty;type:decimal(20,6)"`
	AvgCost      decimal.Decimal `gorm:"column:avg_cost;type:decimal(20,6)"`
	MarketPrice  decimal.Decimal `gorm:"column:market_price;type:decimal(20,6)"`
	MarketValue  decimal.Decimal `gorm:"column:market_value;type:decimal(20,6)"`
	AsOf         time.Time       `gorm:"column:asof_ts;index"`
}

func (Position) TableName() string { return "positions" }

// TerminalOrderStatuses are excluded from the open-order view.
var TerminalOrderStatuses = []string{"Filled", "Cancelled"}

// Order is the one ingested entity with in-place updates, upserted on
// (broker account, broker order id).
type Order struct {
	Base
	ClientID            string            `gorm:"column:client_id;index"`
	AccountID           string            `gorm:"column:broker_account_id;uniqueIndex:idx_order_identity,priority:1"`
	BrokerOrderID       int64             `gorm:"column:broker_order_id;uniqueIndex:idx_order_identity,priority:2"`
	ParentBrokerOrderID *int64            `gorm:"column:parent_broker_order_id"`
	ContractID          *string           `gorm:"column:contract_id;index"`
	Symbol              string            `gorm:"column:symbol"`
	Side                string            `gorm:"column:side"`
	OrderType           string            `gorm:"column:order_type"`
	LimitPrice          *decimal.Decimal  `gorm:"column:limit_price;type:decimal(20,6)"`
	AuxPrice            *decimal.Decimal  `gorm:"column:aux_price;type:decimal(20,6)"`
	TIF                 string            `gorm:"column:tif"`
	Status              string            `gorm:"column:status"`
	Raw                 datatypes.JSONMap `gorm:"column:raw;type:TEXT"`
	CreatedTS           time.Time         `gorm:"column:created_ts"`
	UpdatedTS           time.Time         `gorm:"column:updated_ts"`
}

func (Order) TableName() string { return "orders" }

// Execution is one fill, unique on the broker exec id.
type Execution struct {
	Base
	ClientID string            `gorm:"column:client_id;index"`
	OrderID  string            `gorm:"column:order_id;index"`
	ExecID   string            `gorm:"column:exec_id;uniqueIndex"`
	FillTS   time.Time         `gorm:"column:fill_ts;index"`
	Qty      decimal.Decimal   `gorm:"column:qty;type:decimal(20,6)"`
	Price    decimal.Decimal   `gorm:"column:price;type:decimal(20,6)"`
	Fee      decimal.Decimal   `gorm:"column:fee;type:decimal(20,6)"`
	Venue    string            `gorm:"column:venue"`
	Raw      datatypes.JSONMap `gorm:"column:raw;type:TEXT"`
}

func (Execution) TableName() string { return "executions" }

// OptionEvent is an option lifecycle event, deduped on the composite
// natural key (account, contract, type, ts, qty).
type OptionEvent struct {
	Base
	ClientID   string          `gorm:"column:client_id;index"`
	AccountID  string          `gorm:"column:broker_account_id;index"`
	ContractID *string         `gorm:"column:contract_id;index"`
	EventType  string          `gorm:"column:event_type;index"`
	EventTS    time.Time       `gorm:"column:event_ts;index"`
	Qty        decimal.Decimal `gorm:"column:qty;type:decimal(20,6)"`
	Notes      string          `gorm:"column:notes"`
}

func (OptionEvent) TableName() string { return "option_events" }
