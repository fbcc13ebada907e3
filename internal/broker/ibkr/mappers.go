package ibkr

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"wheelhouse/internal/broker"
)

// Mappers translate raw gateway JSON into the normalized types. They
// are the only place vendor payload shapes are known; everything they
// cannot translate stays in Extras / Raw for audit.

var accountKnownFields = map[string]bool{
	"currency":           true,
	"cash":               true,
	"buying_power":       true,
	"maintenance_margin": true,
	"used_margin":        true,
	"asof":               true,
}

func mapAccountSnapshot(raw []byte, accountCode string) (broker.AccountSnapshotData, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return broker.AccountSnapshotData{}, &broker.DataMappingError{Field: "summary", Reason: "expected JSON object"}
	}

	cash, err := requiredDecimal(doc, "cash")
	if err != nil {
		return broker.AccountSnapshotData{}, err
	}
	buyingPower, err := requiredDecimal(doc, "buying_power")
	if err != nil {
		return broker.AccountSnapshotData{}, err
	}

	extras := map[string]any{}
	doc.ForEach(func(key, value gjson.Result) bool {
		if !accountKnownFields[key.String()] {
			extras[key.String()] = value.Value()
		}
		return true
	})

	currency := doc.Get("currency").String()
	if currency == "" {
		currency = "USD"
	}

	return broker.AccountSnapshotData{
		BrokerAccountCode: accountCode,
		Currency:          currency,
		AsOf:              timestampOrNow(doc, "asof"),
		Cash:              cash,
		BuyingPower:       buyingPower,
		MaintenanceMargin: optionalDecimal(doc, "maintenance_margin"),
		UsedMargin:        optionalDecimal(doc, "used_margin"),
		Extras:            extras,
	}, nil
}

func mapPositions(raw []byte, accountCode string) ([]broker.PositionData, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, &broker.DataMappingError{Field: "positions", Reason: "expected JSON array"}
	}

	var out []broker.PositionData
	var mapErr error
	doc.ForEach(func(_, item gjson.Result) bool {
		symbol := item.Get("symbol").String()
		if symbol == "" {
			mapErr = &broker.DataMappingError{Field: "positions.symbol", Reason: "missing symbol"}
			return false
		}
		qty, err := requiredDecimal(item, "qty")
		if err != nil {
			mapErr = err
			return false
		}
		price := optionalDecimal(item, "market_price")
		value := optionalDecimal(item, "market_value")
		if value.IsZero() && !price.IsZero() {
			value = qty.Mul(price)
		}
		assetType := item.Get("asset_type").String()
		if assetType == "" {
			assetType = "equity"
		}
		currency := item.Get("currency").String()
		if currency == "" {
			currency = "USD"
		}
		out = append(out, broker.PositionData{
			BrokerAccountCode: accountCode,
			Symbol:            symbol,
			Exchange:          item.Get("exchange").String(),
			AssetType:         assetType,
			Currency:          currency,
			ConID:             item.Get("con_id").Int(),
			Qty:               qty,
			AvgCost:           optionalDecimal(item, "avg_cost"),
			MarketPrice:       price,
			MarketValue:       value,
			AsOf:              timestampOrNow(item, "asof"),
			Raw:               rawMap(item),
		})
		return true
	})
	if mapErr != nil {
		return nil, mapErr
	}
	return out, nil
}

func mapOrders(raw []byte, accountCode string) ([]broker.OrderData, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, &broker.DataMappingError{Field: "orders", Reason: "expected JSON array"}
	}

	var out []broker.OrderData
	var mapErr error
	doc.ForEach(func(_, item gjson.Result) bool {
		orderID := item.Get("broker_order_id").Int()
		if orderID == 0 {
			mapErr = &broker.DataMappingError{Field: "orders.broker_order_id", Reason: "missing order id"}
			return false
		}
		side := item.Get("side").String()
		if side == "" {
			mapErr = &broker.DataMappingError{Field: "orders.side", Reason: "missing side"}
			return false
		}
		status := item.Get("status").String()
		if status == "" {
			status = "Unknown"
		}
		created := timestampOrNow(item, "created_ts")
		updated := created
		if ts, ok := timestamp(item, "updated_ts"); ok {
			updated = ts
		}
		out = append(out, broker.OrderData{
			BrokerAccountCode:   accountCode,
			Symbol:              item.Get("symbol").String(),
			ConID:               item.Get("con_id").Int(),
			BrokerOrderID:       orderID,
			ParentBrokerOrderID: item.Get("parent_order_id").Int(),
			Side:                side,
			OrderType:           item.Get("order_type").String(),
			LimitPrice:          optionalDecimalPtr(item, "limit_price"),
			AuxPrice:            optionalDecimalPtr(item, "aux_price"),
			TIF:                 item.Get("tif").String(),
			Status:              status,
			CreatedTS:           created,
			UpdatedTS:           updated,
			Raw:                 rawMap(item),
		})
		return true
	})
	if mapErr != nil {
		return nil, mapErr
	}
	return out, nil
}

func mapExecutions(raw []byte, accountCode string) ([]broker.ExecutionData, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, &broker.DataMappingError{Field: "executions", Reason: "expected JSON array"}
	}

	var out []broker.ExecutionData
	var mapErr error
	doc.ForEach(func(_, item gjson.Result) bool {
		execID := item.Get("exec_id").String()
		if execID == "" {
			mapErr = &broker.DataMappingError{Field: "executions.exec_id", Reason: "missing exec id"}
			return false
		}
		qty, err := requiredDecimal(item, "qty")
		if err != nil {
			mapErr = err
			return false
		}
		price, err := requiredDecimal(item, "price")
		if err != nil {
			mapErr = err
			return false
		}
		out = append(out, broker.ExecutionData{
			BrokerAccountCode: accountCode,
			Symbol:            item.Get("symbol").String(),
			ConID:             item.Get("con_id").Int(),
			ExecID:            execID,
			BrokerOrderID:     item.Get("broker_order_id").Int(),
			FillTS:            timestampOrNow(item, "fill_ts"),
			Qty:               qty,
			Price:             price,
			Fee:               optionalDecimal(item, "fee"),
			Venue:             item.Get("venue").String(),
			Raw:               rawMap(item),
		})
		return true
	})
	if mapErr != nil {
		return nil, mapErr
	}
	return out, nil
}

var optionEventTypes = map[string]bool{
	broker.OptionEventAssignment: true,
	broker.OptionEventExercise:   true,
	broker.OptionEventExpiration: true,
}

func mapOptionEvents(raw []byte, accountCode string) ([]broker.OptionEventData, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, &broker.DataMappingError{Field: "option_events", Reason: "expected JSON array"}
	}

	var out []broker.OptionEventData
	var mapErr error
	doc.ForEach(func(_, item gjson.Result) bool {
		eventType := item.Get("event_type").String()
		if !optionEventTypes[eventType] {
			mapErr = &broker.DataMappingError{Field: "option_events.event_type", Reason: "unknown event type " + eventType}
			return false
		}
		qty, err := requiredDecimal(item, "qty")
		if err != nil {
			mapErr = err
			return false
		}
		out = append(out, broker.OptionEventData{
			BrokerAccountCode: accountCode,
			Symbol:            item.Get("symbol").String(),
			ConID:             item.Get("con_id").Int(),
			EventType:         eventType,
			EventTS:           timestampOrNow(item, "event_ts"),
			Qty:               qty,
			Notes:             item.Get("notes").String(),
			Raw:               rawMap(item),
		})
		return true
	})
	if mapErr != nil {
		return nil, mapErr
	}
	return out, nil
}

// requiredDecimal parses an exact decimal from the field's textual
// form, never through a float64.
func requiredDecimal(doc gjson.Result, key string) (decimal.Decimal, error) {
	field := doc.Get(key)
	if !field.Exists() {
		return decimal.Zero, &broker.DataMappingError{Field: key, Reason: "missing"}
	}
	d, err := decimal.NewFromString(field.String())
	if err != nil {
		return decimal.Zero, &broker.DataMappingError{Field: key, Reason: "not numeric: " + field.String()}
	}
	return d, nil
}

func optionalDecimal(doc gjson.Result, key string) decimal.Decimal {
	field := doc.Get(key)
	if !field.Exists() {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(field.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func optionalDecimalPtr(doc gjson.Result, key string) *decimal.Decimal {
	field := doc.Get(key)
	if !field.Exists() || field.Type == gjson.Null {
		return nil
	}
	d, err := decimal.NewFromString(field.String())
	if err != nil {
		return nil
	}
	return &d
}

func timestamp(doc gjson.Result, key string) (time.Time, bool) {
	field := doc.Get(key)
	if !field.Exists() {
		return time.Time{}, false
	}
	if field.Type == gjson.Number {
		// Unix seconds or milliseconds.
		n := field.Int()
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, field.String()); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}

func timestampOrNow(doc gjson.Result, key string) time.Time {
	if ts, ok := timestamp(doc, key); ok {
		return ts
	}
	return time.Now().UTC()
}

func rawMap(item gjson.Result) map[string]any {
	if m, ok := item.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
