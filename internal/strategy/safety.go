package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wheelhouse/internal/pkg/maputil"
)

// SafetyLimits bounds what a single run may emit.
type SafetyLimits struct {
	MaxRecommendations int
	MaxPerPlan         int
	// MaxTotalNotional is best effort: actions whose params carry no
	// recognizable notional contribute zero. Zero disables the check.
	MaxTotalNotional decimal.Decimal
}

// DefaultSafetyLimits are applied when a run configures none.
func DefaultSafetyLimits() SafetyLimits {
	return SafetyLimits{
		MaxRecommendations: 50,
		MaxPerPlan:         10,
	}
}

// ApplySafetyLimits filters a run's actions: actions are bucketed by
// plan id (standalone actions are their own plan of one), each plan
// is truncated to MaxPerPlan, and the surviving plans concatenate in
// first-encounter order, so a plan's legs always come out together.
// The concatenation is then truncated to MaxRecommendations, and the
// notional cap drops the tail once the running total would exceed
// it. Returned notes describe every cut for the run's debug log.
func ApplySafetyLimits(actions []PlannedAction, limits SafetyLimits) ([]PlannedAction, []string) {
	if limits.MaxRecommendations <= 0 {
		limits.MaxRecommendations = DefaultSafetyLimits().MaxRecommendations
	}
	if limits.MaxPerPlan <= 0 {
		limits.MaxPerPlan = DefaultSafetyLimits().MaxPerPlan
	}
	var notes []string

	var order []string
	plans := make(map[string][]PlannedAction)
	for i, action := range actions {
		key := action.PlanID
		if key == "" {
			key = "__solo__" + fmt.Sprint(i)
		}
		if _, seen := plans[key]; !seen {
			order = append(order, key)
		}
		plans[key] = append(plans[key], action)
	}
	kept := make([]PlannedAction, 0, len(actions))
	for _, key := range order {
		members := plans[key]
		if len(members) > limits.MaxPerPlan {
			members = members[:limits.MaxPerPlan]
		}
		kept = append(kept, members...)
	}
	if cut := len(actions) - len(kept); cut > 0 {
		notes = append(notes, fmt.Sprintf("per-plan limit %d dropped %d action(s)", limits.MaxPerPlan, cut))
	}

	if len(kept) > limits.MaxRecommendations {
		notes = append(notes, fmt.Sprintf("global limit %d dropped %d action(s)",
			limits.MaxRecommendations, len(kept)-limits.MaxRecommendations))
		kept = kept[:limits.MaxRecommendations]
	}

	if limits.MaxTotalNotional.IsPositive() {
		total := decimal.Zero
		within := make([]PlannedAction, 0, len(kept))
		for _, action := range kept {
			total = total.Add(actionNotional(action))
			if total.GreaterThan(limits.MaxTotalNotional) {
				notes = append(notes, fmt.Sprintf("notional cap %s dropped %d action(s)",
					limits.MaxTotalNotional, len(kept)-len(within)))
				break
			}
			within = append(within, action)
		}
		kept = within
	}
	return kept, notes
}

// actionNotional reads an action's declared notional param; actions
// that declare none fall back to the qty * limit_price * multiplier
// estimate, and zero when neither is recoverable.
func actionNotional(action PlannedAction) decimal.Decimal {
	if notional, ok := maputil.Decimal(action.Params, "notional"); ok {
		return notional.Abs()
	}
	qty, ok := maputil.FirstDecimal(action.Params, "qty", "quantity")
	if !ok {
		return decimal.Zero
	}
	price, ok := maputil.FirstDecimal(action.Params, "limit_price", "price", "strike")
	if !ok {
		return decimal.Zero
	}
	notional := qty.Mul(price)
	if mult, ok := maputil.Decimal(action.Params, "multiplier"); ok && mult.IsPositive() {
		notional = notional.Mul(mult)
	}
	return notional.Abs()
}
