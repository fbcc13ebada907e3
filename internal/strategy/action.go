// Package strategy hosts the strategy plugin registry, config
// validation, context building, execution, safety limits and the
// mapping from advice to execution intents. Everything here is
// advice-only; nothing in this package places orders.
package strategy

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical action verbs. Executable verbs map to execution intents;
// the rest are diagnostic and stop at the recommendation table.
const (
	ActionSellPut     = "sell_put"
	ActionSellCall    = "sell_call"
	ActionBuyToClose  = "buy_to_close"
	ActionSellToClose = "sell_to_close"
	ActionBuyShares   = "buy_shares"
	ActionSellShares  = "sell_shares"
	ActionRoll        = "roll"
	ActionHold        = "hold"
	ActionDiagnostic  = "diagnostic"
	ActionReview      = "review"
)

// ExecutableActions is the closed set of verbs that may become
// execution intents.
var ExecutableActions = map[string]bool{
	ActionSellPut:     true,
	ActionSellCall:    true,
	ActionBuyToClose:  true,
	ActionSellToClose: true,
	ActionBuyShares:   true,
	ActionSellShares:  true,
}

// NormalizeAction canonicalizes an action verb: trimmed, lowered,
// inner spaces collapsed to underscores. Unknown verbs pass through
// normalized; the executable check happens at intent mapping.
func NormalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	return strings.Join(strings.Fields(action), "_")
}

// PlannedAction is one piece of advice a strategy emits. Actions
// sharing a PlanID form an ordered multi-leg plan.
type PlannedAction struct {
	Action     string
	Params     map[string]any
	Confidence decimal.Decimal
	Rationale  string

	// PlanID groups multi-leg plans; empty means standalone.
	PlanID string
	// UnderlierSymbol / ConID optionally pin the action to a market.
	UnderlierSymbol string
	ConID           int64
	// OpportunityID links back to the scanner candidate, when any.
	OpportunityID string
}

// Executable reports whether the action's verb is in the executable
// set after normalization.
func (a PlannedAction) Executable() bool {
	return ExecutableActions[NormalizeAction(a.Action)]
}
