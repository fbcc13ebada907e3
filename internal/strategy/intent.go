package strategy

import (
	"strings"

	"github.com/shopspring/decimal"

	"wheelhouse/internal/pkg/maputil"
)

// ExecutionIntent is the broker-ready form of one executable action.
// It is advice: nothing in this repo submits it.
type ExecutionIntent struct {
	AccountCode string
	ConID       int64
	Action      string
	Side        string // BUY / SELL
	Qty         decimal.Decimal
	OrderType   string // LMT / MKT
	LimitPrice  *decimal.Decimal
	TIF         string
}

// verb → order side. Only executable verbs appear here.
var actionSides = map[string]string{
	ActionSellPut:     "SELL",
	ActionSellCall:    "SELL",
	ActionSellToClose: "SELL",
	ActionSellShares:  "SELL",
	ActionBuyToClose:  "BUY",
	ActionBuyShares:   "BUY",
}

// MapActionToIntent converts one planned action into an execution
// intent. Diagnostic verbs, missing account or contract identity,
// and non-positive quantities all fail with MappingError.
func MapActionToIntent(action PlannedAction, accountCode string) (ExecutionIntent, error) {
	verb := NormalizeAction(action.Action)
	if !ExecutableActions[verb] {
		return ExecutionIntent{}, &MappingError{Action: verb, Reason: "not an executable action"}
	}
	if accountCode == "" {
		return ExecutionIntent{}, &MappingError{Action: verb, Reason: "no account code"}
	}
	conID := action.ConID
	if conID == 0 {
		if v, ok := maputil.Int64(action.Params, "con_id"); ok {
			conID = v
		}
	}
	if conID == 0 {
		return ExecutionIntent{}, &MappingError{Action: verb, Reason: "no resolvable contract id"}
	}
	qty, ok := maputil.FirstDecimal(action.Params, "qty", "quantity")
	if !ok {
		return ExecutionIntent{}, &MappingError{Action: verb, Reason: "params carry no qty/quantity"}
	}
	if !qty.IsPositive() {
		return ExecutionIntent{}, &MappingError{Action: verb, Reason: "qty must be positive"}
	}

	side, ok := actionSides[verb]
	if !ok {
		// Executable verb with no side mapping is a table bug, not a
		// strategy bug.
		return ExecutionIntent{}, &MappingError{Action: verb, Reason: "no order side mapping"}
	}

	intent := ExecutionIntent{
		AccountCode: accountCode,
		ConID:       conID,
		Action:      verb,
		Side:        side,
		Qty:         qty,
		OrderType:   "MKT",
		TIF:         "DAY",
	}
	if limit, ok := maputil.Decimal(action.Params, "limit_price"); ok {
		intent.OrderType = "LMT"
		intent.LimitPrice = &limit
	}
	// Explicit params override the derived order type and tif.
	if v := strings.ToUpper(strings.TrimSpace(maputil.String(action.Params, "order_type"))); v != "" {
		intent.OrderType = v
	}
	if v := strings.ToUpper(strings.TrimSpace(maputil.String(action.Params, "tif"))); v != "" {
		intent.TIF = v
	}
	return intent, nil
}

// MapActions maps every executable action, collecting per-action
// failures instead of stopping at the first one.
func MapActions(actions []PlannedAction, accountCode string) ([]ExecutionIntent, []error) {
	var intents []ExecutionIntent
	var errs []error
	for _, action := range actions {
		intent, err := MapActionToIntent(action, accountCode)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		intents = append(intents, intent)
	}
	return intents, errs
}
