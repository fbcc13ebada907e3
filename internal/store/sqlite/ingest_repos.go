package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wheelhouse/internal/store/model"
)

func firstOrNil[T any](db *gorm.DB, dest *T, conds ...any) (*T, error) {
	err := db.First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dest, nil
}

type clientRepo struct{ db *gorm.DB }

func (r clientRepo) Create(ctx context.Context, client *model.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r clientRepo) Get(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r clientRepo) FindByName(ctx context.Context, name string) (*model.Client, error) {
	var c model.Client
	return firstOrNil(r.db.WithContext(ctx), &c, "name = ?", name)
}

type accountRepo struct{ db *gorm.DB }

func (r accountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r accountRepo) Get(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r accountRepo) FindByCode(ctx context.Context, code string) (*model.Account, error) {
	var a model.Account
	return firstOrNil(r.db.WithContext(ctx), &a, "account_code = ?", code)
}

func (r accountRepo) List(ctx context.Context, kinds ...string) ([]model.Account, error) {
	q := r.db.WithContext(ctx).Order("account_code asc")
	if len(kinds) > 0 {
		q = q.Where("kind IN ?", kinds)
	}
	var accounts []model.Account
	if err := q.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

type portfolioRepo struct{ db *gorm.DB }

func (r portfolioRepo) Create(ctx context.Context, portfolio *model.Portfolio) error {
	return r.db.WithContext(ctx).Create(portfolio).Error
}

func (r portfolioRepo) Get(ctx context.Context, id string) (*model.Portfolio, error) {
	var p model.Portfolio
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r portfolioRepo) FirstForAccount(ctx context.Context, accountID string) (*model.Portfolio, error) {
	var p model.Portfolio
	return firstOrNil(
		r.db.WithContext(ctx).Order("created_at asc"), &p,
		"broker_account_id = ?", accountID,
	)
}

type instrumentRepo struct{ db *gorm.DB }

func (r instrumentRepo) GetOrCreate(ctx context.Context, instrument *model.Instrument) (bool, error) {
	var existing model.Instrument
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND exchange = ? AND asset_type = ? AND currency = ?",
			instrument.Symbol, instrument.Exchange, instrument.AssetType, instrument.Currency).
		First(&existing).Error
	if err == nil {
		*instrument = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := r.db.WithContext(ctx).Create(instrument).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r instrumentRepo) Get(ctx context.Context, id string) (*model.Instrument, error) {
	var i model.Instrument
	if err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

func (r instrumentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Instrument{}).Count(&n).Error
	return n, err
}

type contractRepo struct{ db *gorm.DB }

func (r contractRepo) GetOrCreate(ctx context.Context, contract *model.Contract) (bool, error) {
	var existing model.Contract
	err := r.db.WithContext(ctx).First(&existing, "con_id = ?", contract.ConID).Error
	if err == nil {
		*contract = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := r.db.WithContext(ctx).Create(contract).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r contractRepo) FindByConID(ctx context.Context, conID int64) (*model.Contract, error) {
	var c model.Contract
	return firstOrNil(r.db.WithContext(ctx), &c, "con_id = ?", conID)
}

func (r contractRepo) Relink(ctx context.Context, contractID, instrumentID string) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", contractID).
		Update("instrument_id", instrumentID).Error
}

func (r contractRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Contract{}).Count(&n).Error
	return n, err
}

type snapshotRepo struct{ db *gorm.DB }

func (r snapshotRepo) Create(ctx context.Context, snapshot *model.AccountSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r snapshotRepo) LatestForAccount(ctx context.Context, accountID string) (*model.AccountSnapshot, error) {
	var s model.AccountSnapshot
	return firstOrNil(
		r.db.WithContext(ctx).Order("asof_ts desc"), &s,
		"broker_account_id = ?", accountID,
	)
}

func (r snapshotRepo) CountForAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AccountSnapshot{}).
		Where("broker_account_id = ?", accountID).Count(&n).Error
	return n, err
}

type positionRepo struct{ db *gorm.DB }

func (r positionRepo) Create(ctx context.Context, position *model.Position) error {
	return r.db.WithContext(ctx).Create(position).Error
}

func (r positionRepo) ListForPortfolio(ctx context.Context, portfolioID, accountID string) ([]model.Position, error) {
	var positions []model.Position
	err := r.db.WithContext(ctx).
		Where("portfolio_id = ? AND broker_account_id = ?", portfolioID, accountID).
		Order("asof_ts desc").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}
	return positions, nil
}

func (r positionRepo) Current(ctx context.Context, portfolioID string) ([]model.Position, error) {
	var rows []model.Position
	err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("asof_ts desc, created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	// Rows are newest-first, so the first row seen per key wins.
	seen := make(map[string]bool, len(rows))
	current := make([]model.Position, 0, len(rows))
	for _, row := range rows {
		key := "instrument:" + row.InstrumentID
		if row.ContractID != nil {
			key = "contract:" + *row.ContractID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		current = append(current, row)
	}
	return current, nil
}

type orderRepo struct{ db *gorm.DB }

// mutable order columns updated on re-sync of a known broker order id.
var orderUpdateColumns = []string{
	"status", "order_type", "limit_price", "aux_price", "tif",
	"parent_broker_order_id", "raw", "updated_ts",
}

func (r orderRepo) Upsert(ctx context.Context, order *model.Order) (bool, error) {
	var existing model.Order
	err := r.db.WithContext(ctx).
		Where("broker_account_id = ? AND broker_order_id = ?", order.AccountID, order.BrokerOrderID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}
	order.ID = existing.ID
	order.CreatedAt = existing.CreatedAt
	order.CreatedTS = existing.CreatedTS
	err = r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", existing.ID).
		Select(orderUpdateColumns).
		Updates(order).Error
	return false, err
}

func (r orderRepo) FindByBrokerOrderID(ctx context.Context, accountID string, brokerOrderID int64) (*model.Order, error) {
	var o model.Order
	return firstOrNil(
		r.db.WithContext(ctx).Order("created_ts desc"), &o,
		"broker_account_id = ? AND broker_order_id = ?", accountID, brokerOrderID,
	)
}

func (r orderRepo) ListOpenForAccount(ctx context.Context, accountID string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("broker_account_id = ? AND status NOT IN ?", accountID, model.TerminalOrderStatuses).
		Order("created_ts desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r orderRepo) CountForAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("broker_account_id = ?", accountID).Count(&n).Error
	return n, err
}

type executionRepo struct{ db *gorm.DB }

func (r executionRepo) Create(ctx context.Context, execution *model.Execution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

func (r executionRepo) ExistsByExecID(ctx context.Context, execID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Execution{}).
		Where("exec_id = ?", execID).Count(&n).Error
	return n > 0, err
}

func (r executionRepo) ListSince(ctx context.Context, clientID string, cutoff time.Time) ([]model.Execution, error) {
	var executions []model.Execution
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND fill_ts >= ?", clientID, cutoff).
		Order("fill_ts asc").
		Find(&executions).Error
	if err != nil {
		return nil, err
	}
	return executions, nil
}

func (r executionRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Execution{}).Count(&n).Error
	return n, err
}

type optionEventRepo struct{ db *gorm.DB }

func (r optionEventRepo) Create(ctx context.Context, event *model.OptionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r optionEventRepo) Exists(ctx context.Context, accountID string, contractID *string, eventType string, eventTS time.Time, qty decimal.Decimal) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.OptionEvent{}).
		Where("broker_account_id = ? AND event_type = ? AND event_ts = ? AND qty = ?",
			accountID, eventType, eventTS, qty)
	if contractID != nil {
		q = q.Where("contract_id = ?", *contractID)
	} else {
		q = q.Where("contract_id IS NULL")
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r optionEventRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OptionEvent{}).Count(&n).Error
	return n, err
}
