package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// StrategyDefinition is a catalogue entry (name + slug).
type StrategyDefinition struct {
	Base
	Name        string `gorm:"column:name;uniqueIndex"`
	Slug        string `gorm:"column:slug;uniqueIndex"`
	Description string `gorm:"column:description"`
}

func (StrategyDefinition) TableName() string { return "strategy_definitions" }

// StrategyVersion pins a code reference ("module/path:Symbol") and an
// optional config schema for one version of a definition.
type StrategyVersion struct {
	Base
	DefinitionID string            `gorm:"column:definition_id;uniqueIndex:idx_version_identity,priority:1"`
	Version      string            `gorm:"column:version;uniqueIndex:idx_version_identity,priority:2"`
	Schema       datatypes.JSONMap `gorm:"column:schema;type:TEXT"`
	CodeRef      string            `gorm:"column:code_ref"`
}

func (StrategyVersion) TableName() string { return "strategy_versions" }

// StrategyInstance binds a version to a client/portfolio with an
// immutable config value object.
type StrategyInstance struct {
	Base
	ClientID    string            `gorm:"column:client_id;uniqueIndex:idx_instance_identity,priority:1"`
	Name        string            `gorm:"column:name;uniqueIndex:idx_instance_identity,priority:2"`
	VersionID   string            `gorm:"column:strategy_version_id;index"`
	PortfolioID *string           `gorm:"column:portfolio_id;index"`
	Enabled     bool              `gorm:"column:enabled;index"`
	Tags        string            `gorm:"column:tags"`
	Config      datatypes.JSONMap `gorm:"column:config;type:TEXT"`
}

func (StrategyInstance) TableName() string { return "strategy_instances" }

// StrategyRun statuses.
const (
	RunStatusInProgress = "in_progress"
	RunStatusOK         = "ok"
	RunStatusError      = "error"
)

// StrategyRun modes.
const (
	RunModeDaily  = "daily"
	RunModeManual = "manual"
)

// StrategyRun is one execution attempt: created in_progress, updated
// exactly once at terminal state (ok or error).
type StrategyRun struct {
	Base
	InstanceID string            `gorm:"column:strategy_instance_id;index:idx_run_instance_ts,priority:1"`
	RunTS      time.Time         `gorm:"column:run_ts;index:idx_run_instance_ts,priority:2"`
	Mode       string            `gorm:"column:mode"`
	Status     string            `gorm:"column:status"`
	DurationMS int64             `gorm:"column:duration_ms"`
	Stats      datatypes.JSONMap `gorm:"column:stats;type:TEXT"`
	DebugLog   datatypes.JSON    `gorm:"column:debug_log;type:TEXT"`
	ErrorTrace string            `gorm:"column:error_trace"`
}

func (StrategyRun) TableName() string { return "strategy_runs" }

// Opportunity is a scanner-produced candidate a recommendation may
// link back to for decision support.
type Opportunity struct {
	Base
	ClientID       string            `gorm:"column:client_id;index"`
	AsOf           time.Time         `gorm:"column:asof_ts;index"`
	UnderlierID    string            `gorm:"column:underlier_id;index"`
	ContractID     *string           `gorm:"column:contract_id"`
	Metrics        datatypes.JSONMap `gorm:"column:metrics;type:TEXT"`
	RequiredMargin *decimal.Decimal  `gorm:"column:required_margin;type:decimal(20,6)"`
	Notes          string            `gorm:"column:notes"`
}

func (Opportunity) TableName() string { return "opportunities" }

// Recommendation is the durable form of one planned action, with full
// strategy/version/portfolio/account linkage and optional plan
// grouping.
type Recommendation struct {
	Base
	ClientID    string  `gorm:"column:client_id;index"`
	PortfolioID string  `gorm:"column:portfolio_id;index"`
	AccountID   string  `gorm:"column:broker_account_id;index"`
	InstanceID  string  `gorm:"column:strategy_instance_id;index"`
	VersionID   *string `gorm:"column:strategy_version_id"`

	AsOf        time.Time `gorm:"column:asof_ts;index"`
	UnderlierID *string   `gorm:"column:underlier_id"`
	ContractID  *string   `gorm:"column:contract_id"`

	Action     string            `gorm:"column:action;index"`
	Params     datatypes.JSONMap `gorm:"column:params;type:TEXT"`
	Confidence decimal.Decimal   `gorm:"column:confidence;type:decimal(5,2)"`
	Rationale  string            `gorm:"column:rationale"`

	PlanID        *string `gorm:"column:plan_id;index"`
	OpportunityID *string `gorm:"column:opportunity_id;index"`
}

func (Recommendation) TableName() string { return "recommendations" }
