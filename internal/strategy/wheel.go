package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code refs for the built-in strategies.
const (
	CodeRefWheelV1 = "wheelhouse/internal/strategy:WheelV1"
	CodeRefNoop    = "wheelhouse/internal/strategy:Noop"
)

// RegisterBuiltins wires every compiled-in strategy.
func RegisterBuiltins(registry *Registry) {
	registry.Register(CodeRefWheelV1, func() Strategy { return &WheelV1{} })
	registry.Register(CodeRefNoop, func() Strategy {
		return Func(func(ctx context.Context, sc *Context) ([]PlannedAction, error) {
			return nil, nil
		})
	})
}

// WheelV1 is the first cut of the wheel strategy. It does not pick
// entries yet; it emits a single diagnostic action summarizing the
// account so operators can verify the pipeline end to end before any
// real signal logic lands.
type WheelV1 struct{}

func (w *WheelV1) Evaluate(ctx context.Context, sc *Context) ([]PlannedAction, error) {
	summary := fmt.Sprintf(
		"account %s: cash %s %s, buying power %s, %d open position(s), %d open order(s), %d fill(s) in window",
		sc.Account.AccountCode,
		sc.Snapshot.Cash, sc.Snapshot.Currency,
		sc.Snapshot.BuyingPower,
		len(sc.CurrentPositions),
		len(sc.OpenOrders),
		len(sc.Executions),
	)
	return []PlannedAction{{
		Action: ActionDiagnostic,
		Params: map[string]any{
			"open_positions":  len(sc.CurrentPositions),
			"open_orders":     len(sc.OpenOrders),
			"fills_in_window": len(sc.Executions),
		},
		Confidence: decimal.NewFromInt(1),
		Rationale:  summary,
	}}, nil
}
