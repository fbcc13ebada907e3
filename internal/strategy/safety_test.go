package strategy

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planOf(planID string, n int) []PlannedAction {
	actions := make([]PlannedAction, 0, n)
	for i := 0; i < n; i++ {
		actions = append(actions, PlannedAction{
			Action: ActionSellPut,
			PlanID: planID,
			Params: map[string]any{"leg": i},
		})
	}
	return actions
}

func TestApplySafetyLimitsPerPlanThenGlobal(t *testing.T) {
	var actions []PlannedAction
	actions = append(actions, planOf("plan-a", 12)...)
	actions = append(actions, planOf("plan-b", 3)...)
	actions = append(actions, planOf("plan-c", 5)...)

	kept, notes := ApplySafetyLimits(actions, SafetyLimits{
		MaxRecommendations: 15,
		MaxPerPlan:         10,
	})

	// 12 -> 10, then global 10+3+5=18 -> 15.
	require.Len(t, kept, 15)
	counts := map[string]int{}
	for _, action := range kept {
		counts[action.PlanID]++
	}
	assert.Equal(t, 10, counts["plan-a"])
	assert.Equal(t, 3, counts["plan-b"])
	assert.Equal(t, 2, counts["plan-c"])
	assert.Len(t, notes, 2)
}

func TestApplySafetyLimitsPreservesOrder(t *testing.T) {
	actions := planOf("plan-a", 4)
	kept, notes := ApplySafetyLimits(actions, SafetyLimits{MaxRecommendations: 10, MaxPerPlan: 10})
	require.Len(t, kept, 4)
	for i, action := range kept {
		assert.Equal(t, i, action.Params["leg"])
	}
	assert.Empty(t, notes)
}

func TestApplySafetyLimitsGroupsInterleavedPlans(t *testing.T) {
	actions := []PlannedAction{
		{Action: ActionSellPut, PlanID: "plan-a", Params: map[string]any{"leg": "a1"}},
		{Action: ActionSellCall, PlanID: "plan-b", Params: map[string]any{"leg": "b1"}},
		{Action: ActionBuyToClose, PlanID: "plan-a", Params: map[string]any{"leg": "a2"}},
	}
	kept, notes := ApplySafetyLimits(actions, SafetyLimits{MaxRecommendations: 10, MaxPerPlan: 10})

	// Legs of one plan come out together; plans keep first-encounter
	// order.
	require.Len(t, kept, 3)
	assert.Equal(t, "a1", kept[0].Params["leg"])
	assert.Equal(t, "a2", kept[1].Params["leg"])
	assert.Equal(t, "b1", kept[2].Params["leg"])
	assert.Empty(t, notes)
}

func TestApplySafetyLimitsStandaloneActionsAreTheirOwnPlan(t *testing.T) {
	var actions []PlannedAction
	for i := 0; i < 5; i++ {
		actions = append(actions, PlannedAction{Action: ActionSellCall, Params: map[string]any{"i": i}})
	}
	kept, _ := ApplySafetyLimits(actions, SafetyLimits{MaxRecommendations: 50, MaxPerPlan: 1})
	assert.Len(t, kept, 5)
}

func TestApplySafetyLimitsNotionalCap(t *testing.T) {
	var actions []PlannedAction
	for i := 0; i < 4; i++ {
		actions = append(actions, PlannedAction{
			Action: ActionBuyShares,
			PlanID: fmt.Sprintf("p%d", i),
			Params: map[string]any{"qty": 10, "limit_price": "100"},
		})
	}
	kept, notes := ApplySafetyLimits(actions, SafetyLimits{
		MaxRecommendations: 50,
		MaxPerPlan:         10,
		MaxTotalNotional:   decimal.NewFromInt(2500),
	})
	// Each action is 1000 notional; the third pushes the total to 3000.
	assert.Len(t, kept, 2)
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1], "notional cap")
}

func TestApplySafetyLimitsNotionalParamWins(t *testing.T) {
	var actions []PlannedAction
	for i := 0; i < 2; i++ {
		actions = append(actions, PlannedAction{
			Action: ActionSellPut,
			PlanID: fmt.Sprintf("p%d", i),
			Params: map[string]any{"qty": 1, "limit_price": "2.50", "notional": "900"},
		})
	}
	kept, notes := ApplySafetyLimits(actions, SafetyLimits{
		MaxRecommendations: 50,
		MaxPerPlan:         10,
		MaxTotalNotional:   decimal.NewFromInt(1000),
	})
	// The declared notional (900) overrides the qty*price estimate, so
	// the second action trips the cap.
	assert.Len(t, kept, 1)
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1], "notional cap")
}

func TestApplySafetyLimitsNotionalBestEffort(t *testing.T) {
	actions := []PlannedAction{
		{Action: ActionHold, Params: map[string]any{}},
		{Action: ActionSellPut, Params: map[string]any{"qty": 1, "limit_price": "2.50", "multiplier": 100}},
	}
	kept, _ := ApplySafetyLimits(actions, SafetyLimits{
		MaxRecommendations: 50,
		MaxPerPlan:         10,
		MaxTotalNotional:   decimal.NewFromInt(1000),
	})
	// hold carries no notional, sell_put contributes 250.
	assert.Len(t, kept, 2)
}

func TestApplySafetyLimitsZeroLimitsFallBackToDefaults(t *testing.T) {
	actions := planOf("plan-a", 60)
	kept, _ := ApplySafetyLimits(actions, SafetyLimits{})
	assert.Len(t, kept, DefaultSafetyLimits().MaxPerPlan)
}
