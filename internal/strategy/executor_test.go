package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"wheelhouse/internal/store/model"
	"wheelhouse/internal/store/sqlite"
)

type world struct {
	store    *sqlite.Store
	client   *model.Client
	account  *model.Account
	instance *model.StrategyInstance
	version  *model.StrategyVersion
}

// seedWorld builds a store with one client, SIM account, portfolio and
// an enabled instance pointing at the given code ref.
func seedWorld(t *testing.T, codeRef string, config datatypes.JSONMap) *world {
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
	portfolio := &model.Portfolio{
		ClientID:     client.ID,
		Name:         "test portfolio",
		BaseCurrency: "USD",
		AccountID:    account.ID,
	}
	require.NoError(t, repos.Portfolios().Create(ctx, portfolio))

	def := &model.StrategyDefinition{Name: "Test", Slug: "test"}
	require.NoError(t, repos.Strategies().CreateDefinition(ctx, def))
	version := &model.StrategyVersion{
		DefinitionID: def.ID,
		Version:      "v1",
		CodeRef:      codeRef,
	}
	require.NoError(t, repos.Strategies().CreateVersion(ctx, version))
	instance := &model.StrategyInstance{
		ClientID:    client.ID,
		Name:        "test-instance",
		VersionID:   version.ID,
		PortfolioID: &portfolio.ID,
		Enabled:     true,
		Config:      config,
	}
	require.NoError(t, repos.Strategies().CreateInstance(ctx, instance))

	return &world{store: st, client: client, account: account, instance: instance, version: version}
}

func newTestExecutor(st *sqlite.Store, register func(*Registry)) *Executor {
	catalog, _ := NewCatalog()
	registry := NewRegistry(catalog)
	if register != nil {
		register(registry)
	}
	builder := NewContextBuilder(st, 7)
	return NewExecutor(st, registry, builder, DefaultSafetyLimits())
}

func TestExecutorHappyPath(t *testing.T) {
	const codeRef = "test:Emitter"
	w := seedWorld(t, codeRef, nil)
	executor := newTestExecutor(w.store, func(r *Registry) {
		r.Register(codeRef, func() Strategy {
			return Func(func(ctx context.Context, sc *Context) ([]PlannedAction, error) {
				return []PlannedAction{
					{Action: "Sell Put", Confidence: decimal.RequireFromString("0.7"), Rationale: "premium rich", PlanID: "plan-1"},
					{Action: ActionHold, Confidence: decimal.RequireFromString("0.2")},
				}, nil
			})
		})
	})

	result, err := executor.RunInstance(context.Background(), w.instance, model.RunModeManual, false, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, result.Run)
	assert.Equal(t, model.RunStatusOK, result.Run.Status)
	assert.GreaterOrEqual(t, result.Run.DurationMS, int64(0))
	assert.Empty(t, result.Run.ErrorTrace)
	require.Len(t, result.Recommendations, 2)
	// Verbs are normalized on persist.
	assert.Equal(t, "sell_put", result.Recommendations[0].Action)
	require.NotNil(t, result.Recommendations[0].PlanID)
	assert.Equal(t, "plan-1", *result.Recommendations[0].PlanID)

	runs, err := w.store.Repos().Runs().ListForInstance(context.Background(), w.instance.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusOK, runs[0].Status)
	assert.NotEmpty(t, runs[0].DebugLog)
}

func TestExecutorErrorRunPersistsAndPropagates(t *testing.T) {
	const codeRef = "test:Broken"
	w := seedWorld(t, codeRef, nil)
	boom := errors.New("market data unavailable")
	executor := newTestExecutor(w.store, func(r *Registry) {
		r.Register(codeRef, func() Strategy {
			return Func(func(ctx context.Context, sc *Context) ([]PlannedAction, error) {
				return nil, boom
			})
		})
	})

	_, err := executor.RunInstance(context.Background(), w.instance, model.RunModeManual, false, time.Time{})
	require.ErrorIs(t, err, boom)

	runs, err := w.store.Repos().Runs().ListForInstance(context.Background(), w.instance.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusError, runs[0].Status)
	assert.Contains(t, runs[0].ErrorTrace, "market data unavailable")
	assert.Contains(t, runs[0].ErrorTrace, "goroutine")
}

func TestExecutorPanicBecomesErrorRun(t *testing.T) {
	const codeRef = "test:Panicky"
	w := seedWorld(t, codeRef, nil)
	executor := newTestExecutor(w.store, func(r *Registry) {
		r.Register(codeRef, func() Strategy {
			return Func(func(ctx context.Context, sc *Context) ([]PlannedAction, error) {
				panic("nil dereference somewhere deep")
			})
		})
	})

	_, err := executor.RunInstance(context.Background(), w.instance, model.RunModeManual, false, time.Time{})
	require.Error(t, err)
	runs, err := w.store.Repos().Runs().ListForInstance(context.Background(), w.instance.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusError, runs[0].Status)
	assert.Contains(t, runs[0].ErrorTrace, "nil dereference")
}

func TestExecutorUnresolvableCodeRef(t *testing.T) {
	w := seedWorld(t, "ghost:Nowhere", nil)
	executor := newTestExecutor(w.store, nil)

	_, err := executor.RunInstance(context.Background(), w.instance, model.RunModeManual, false, time.Time{})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	runs, err := w.store.Repos().Runs().ListForInstance(context.Background(), w.instance.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusError, runs[0].Status)
}

func TestExecutorDryRunKeepsTelemetrySkipsRecommendations(t *testing.T) {
	const codeRef = "test:Emitter"
	w := seedWorld(t, codeRef, nil)
	executor := newTestExecutor(w.store, func(r *Registry) {
		r.Register(codeRef, func() Strategy {
			return Func(func(ctx context.Context, sc *Context) ([]PlannedAction, error) {
				return []PlannedAction{{Action: ActionSellPut, Confidence: decimal.NewFromInt(1)}}, nil
			})
		})
	})

	result, err := executor.RunInstance(context.Background(), w.instance, model.RunModeManual, true, time.Time{})
	require.NoError(t, err)
	assert.Len(t, result.Actions, 1)
	assert.Empty(t, result.Recommendations)

	// The run row lands even on a dry run; only recommendations are
	// held back.
	runs, err := w.store.Repos().Runs().ListForInstance(context.Background(), w.instance.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusOK, runs[0].Status)
	recs, err := w.store.Repos().Recommendations().ListForInstance(context.Background(), w.instance.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestExecutorRunsAtExplicitAsOf(t *testing.T) {
	const codeRef = "test:Emitter"
	w := seedWorld(t, codeRef, nil)
	executor := newTestExecutor(w.store, func(r *Registry) {
		r.Register(codeRef, func() Strategy {
			return Func(func(ctx context.Context, sc *Context) ([]PlannedAction, error) {
				return []PlannedAction{{Action: ActionSellPut, Confidence: decimal.NewFromInt(1)}}, nil
			})
		})
	})

	asOf := time.Date(2026, 8, 1, 14, 30, 0, 0, time.UTC)
	result, err := executor.RunInstance(context.Background(), w.instance, model.RunModeManual, false, asOf)
	require.NoError(t, err)
	assert.True(t, result.Run.RunTS.Equal(asOf))
	require.Len(t, result.Recommendations, 1)
	assert.True(t, result.Recommendations[0].AsOf.Equal(asOf))
}

func TestWheelV1EmitsDiagnostic(t *testing.T) {
	w := seedWorld(t, CodeRefWheelV1, datatypes.JSONMap{"target_symbols": []any{"AAPL"}})
	executor := newTestExecutor(w.store, RegisterBuiltins)

	result, err := executor.RunInstance(context.Background(), w.instance, model.RunModeDaily, false, time.Time{})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	recommendation := result.Recommendations[0]
	assert.Equal(t, ActionDiagnostic, recommendation.Action)
	assert.Contains(t, recommendation.Rationale, w.account.AccountCode)
	// Diagnostic advice never becomes an execution intent.
	_, mapErr := MapActionToIntent(result.Actions[0], w.account.AccountCode)
	require.Error(t, mapErr)
	assert.WithinDuration(t, time.Now().UTC(), recommendation.AsOf, time.Minute)
}
