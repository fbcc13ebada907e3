package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelhouse/internal/broker"
	"wheelhouse/internal/store/model"
	"wheelhouse/internal/store/sqlite"
)

type fixture struct {
	store   *sqlite.Store
	syncer  *Syncer
	account model.Account
	fake    *broker.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	repos := st.Repos()
	client := &model.Client{Name: "test-client", IsActive: true}
	require.NoError(t, repos.Clients().Create(ctx, client))
	account := &model.Account{
		ClientID:     client.ID,
		Kind:         model.KindSimulated,
		AccountCode:  "DU0000001",
		BaseCurrency: "USD",
	}
	require.NoError(t, repos.Accounts().Create(ctx, account))

	fake := &broker.Fake{}
	registry := broker.NewRegistry()
	registry.Register(model.KindSimulated, func(ref broker.AccountRef) (broker.Broker, error) {
		return fake, nil
	})
	return &fixture{
		store:   st,
		syncer:  NewSyncer(st, registry, 7),
		account: *account,
		fake:    fake,
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) loadCanned(now time.Time) {
	f.fake.AccountSnapshots = []broker.AccountSnapshotData{
		broker.SimpleAccountSnapshot(f.account.AccountCode, "USD"),
	}
	f.fake.Positions = []broker.PositionData{
		broker.SimplePosition(f.account.AccountCode, "AAPL"),
	}
	f.fake.Orders = []broker.OrderData{{
		BrokerAccountCode: f.account.AccountCode,
		Symbol:            "AAPL",
		ConID:             265598,
		BrokerOrderID:     5001,
		Side:              "BUY",
		OrderType:         "LMT",
		LimitPrice:        decimalPtr("150.00"),
		TIF:               "DAY",
		Status:            "Submitted",
		CreatedTS:         now,
		UpdatedTS:         now,
	}}
	f.fake.Executions = []broker.ExecutionData{{
		BrokerAccountCode: f.account.AccountCode,
		Symbol:            "AAPL",
		ConID:             265598,
		ExecID:            "0001f4e5.66aa01.01.01",
		BrokerOrderID:     5001,
		FillTS:            now,
		Qty:               d("10"),
		Price:             d("150.25"),
		Fee:               d("1.00"),
		Venue:             "NASDAQ",
	}}
	f.fake.OptionEvents = []broker.OptionEventData{{
		BrokerAccountCode: f.account.AccountCode,
		Symbol:            "AAPL",
		EventType:         broker.OptionEventExpiration,
		EventTS:           now.Truncate(time.Second),
		Qty:               d("1"),
		Notes:             "expired worthless",
	}}
}

func decimalPtr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestSyncAccountSummaryAppendsEachRun(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		summary, err := f.syncer.SyncAccountSummary(ctx, f.account)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Created)
	}
	count, err := f.store.Repos().Snapshots().CountForAccount(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	latest, err := f.store.Repos().Snapshots().LatestForAccount(ctx, f.account.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Cash.Equal(d("100000")))
}

func TestSyncAccountSummaryEmptyResponseIsFatal(t *testing.T) {
	f := newFixture(t)
	_, err := f.syncer.SyncAccountSummary(context.Background(), f.account)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot")
}

func TestSyncPositionsIdempotentReferenceData(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	ctx := context.Background()
	repos := f.store.Repos()

	for i := 1; i <= 2; i++ {
		summary, err := f.syncer.SyncPositions(ctx, f.account)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Created)
	}

	// Position rows append, but instrument and contract converge.
	instruments, err := repos.Instruments().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), instruments)
	contracts, err := repos.Contracts().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), contracts)

	contract, err := repos.Contracts().FindByConID(ctx, 265598)
	require.NoError(t, err)
	require.NotNil(t, contract)
	instrument, err := repos.Instruments().Get(ctx, contract.InstrumentID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", instrument.Symbol)

	portfolio, err := repos.Portfolios().FirstForAccount(ctx, f.account.ID)
	require.NoError(t, err)
	require.NotNil(t, portfolio)
	current, err := repos.Positions().Current(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.True(t, current[0].Qty.Equal(d("10")))
}

func TestSyncOrdersUpsert(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	f.loadCanned(now)
	ctx := context.Background()

	summary, err := f.syncer.SyncOrders(ctx, f.account)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Updated)

	// Same order again, now filled: updated in place, no new row.
	f.fake.Orders[0].Status = "Filled"
	f.fake.Orders[0].UpdatedTS = now.Add(time.Minute)
	summary, err = f.syncer.SyncOrders(ctx, f.account)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	count, err := f.store.Repos().Orders().CountForAccount(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	order, err := f.store.Repos().Orders().FindByBrokerOrderID(ctx, f.account.ID, 5001)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "Filled", order.Status)

	open, err := f.store.Repos().Orders().ListOpenForAccount(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSyncOrdersSkipsForeignAccountCode(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	f.fake.Orders[0].BrokerAccountCode = "U9999999"
	summary, err := f.syncer.SyncOrders(context.Background(), f.account)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
}

func TestSyncExecutionsDedupeByExecID(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	ctx := context.Background()

	_, err := f.syncer.SyncOrders(ctx, f.account)
	require.NoError(t, err)

	summary, err := f.syncer.SyncExecutions(ctx, f.account)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	summary, err = f.syncer.SyncExecutions(ctx, f.account)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Skipped)

	count, err := f.store.Repos().Executions().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSyncExecutionsSkipsFillsOutsideLookback(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	ctx := context.Background()

	_, err := f.syncer.SyncOrders(ctx, f.account)
	require.NoError(t, err)

	// A fill from last month is outside the 7-day window.
	f.fake.Executions[0].FillTS = time.Now().UTC().AddDate(0, -1, 0)
	summary, err := f.syncer.SyncExecutions(ctx, f.account)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
}

func TestSyncExecutionsSkipsUnknownOrder(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	// No order sync first: the fill's order is unknown.
	summary, err := f.syncer.SyncExecutions(context.Background(), f.account)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
}

func TestSyncOptionEventsDedupeOnNaturalKey(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	ctx := context.Background()

	summary, err := f.syncer.SyncOptionEvents(ctx, f.account)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	summary, err = f.syncer.SyncOptionEvents(ctx, f.account)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Skipped)

	count, err := f.store.Repos().OptionEvents().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSyncAllIsolatesAccountFailures(t *testing.T) {
	f := newFixture(t)
	f.loadCanned(time.Now().UTC())
	ctx := context.Background()
	repos := f.store.Repos()

	// Second account whose broker kind has no registered factory.
	client, err := repos.Clients().FindByName(ctx, "test-client")
	require.NoError(t, err)
	broken := &model.Account{
		ClientID:     client.ID,
		Kind:         model.KindIBKR,
		AccountCode:  "U7777777",
		BaseCurrency: "USD",
	}
	require.NoError(t, repos.Accounts().Create(ctx, broken))

	results, err := f.syncer.SyncAll(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byCode := map[string]AccountResult{}
	for _, res := range results {
		byCode[res.AccountCode] = res
	}
	good := byCode["DU0000001"]
	require.NoError(t, good.Err)
	assert.Equal(t, 1, good.Snapshots.Created)
	assert.Equal(t, 1, good.Executions.Created)

	bad := byCode["U7777777"]
	require.Error(t, bad.Err)
	var unsupported *broker.UnsupportedBrokerError
	assert.ErrorAs(t, bad.Err, &unsupported)
}

func TestSyncFetchFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.fake.Err = errors.New("gateway down")
	_, err := f.syncer.SyncPositions(context.Background(), f.account)
	require.ErrorContains(t, err, "gateway down")
}
