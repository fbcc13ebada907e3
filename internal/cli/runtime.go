package cli

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wheelhouse/internal/broker"
	"wheelhouse/internal/broker/ibkr"
	"wheelhouse/internal/config"
	"wheelhouse/internal/ingest"
	"wheelhouse/internal/logger"
	"wheelhouse/internal/store/model"
	"wheelhouse/internal/store/sqlite"
	"wheelhouse/internal/strategy"
)

// runtime wires the whole pipeline for one CLI invocation.
type runtime struct {
	cfg          *config.Config
	store        *sqlite.Store
	brokers      *broker.Registry
	syncer       *ingest.Syncer
	registry     *strategy.Registry
	executor     *strategy.Executor
	orchestrator *strategy.Orchestrator

	logFile *os.File
}

func newRuntime(cfgPath string) (*runtime, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.App.LogLevel)

	st, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	brokers := broker.NewRegistry()
	ibkrFactory := ibkr.NewFactory(ibkr.Config{
		BaseURL:            cfg.IBKR.BaseURL,
		TimeoutSeconds:     cfg.IBKR.TimeoutSeconds,
		InsecureSkipVerify: cfg.IBKR.InsecureSkipVerify,
		BreakerThreshold:   cfg.IBKR.BreakerThreshold,
		BreakerCooloff:     time.Duration(cfg.IBKR.BreakerCooloffSeconds) * time.Second,
	})
	brokers.Register(model.KindIBKR, ibkrFactory)
	brokers.Register(model.KindIBKRPaper, ibkrFactory)
	brokers.Register(model.KindSimulated, simFactory)

	var catalog *strategy.Catalog
	if cfg.Engine.SchemaCatalogPath != "" {
		catalog, err = strategy.NewCatalogFromFile(cfg.Engine.SchemaCatalogPath)
	} else {
		catalog, err = strategy.NewCatalog()
	}
	if err != nil {
		st.Close()
		return nil, err
	}
	registry := strategy.NewRegistry(catalog)
	strategy.RegisterBuiltins(registry)

	builder := strategy.NewContextBuilder(st, cfg.Engine.ContextLookbackDays)
	limits := strategy.SafetyLimits{
		MaxRecommendations: cfg.Engine.Safety.MaxRecommendations,
		MaxPerPlan:         cfg.Engine.Safety.MaxPerPlan,
		MaxTotalNotional:   decimal.NewFromFloat(cfg.Engine.Safety.MaxTotalNotional),
	}
	executor := strategy.NewExecutor(st, registry, builder, limits)

	return &runtime{
		cfg:          cfg,
		store:        st,
		brokers:      brokers,
		syncer:       ingest.NewSyncer(st, brokers, cfg.Sync.ExecutionLookbackDays),
		registry:     registry,
		executor:     executor,
		orchestrator: strategy.NewOrchestrator(st, executor, cfg.Sync.Parallelism),
		logFile:      logFile,
	}, nil
}

func (r *runtime) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			logger.Warnf("closing store: %v", err)
		}
	}
	if r.logFile != nil {
		r.logFile.Close()
	}
}

// simFactory serves the SIM account kind with canned data so the full
// pipeline can be exercised without a live gateway.
func simFactory(ref broker.AccountRef) (broker.Broker, error) {
	now := time.Now().UTC()
	return &broker.Fake{
		AccountSnapshots: []broker.AccountSnapshotData{
			broker.SimpleAccountSnapshot(ref.Code, ref.Currency),
		},
		Positions: []broker.PositionData{
			broker.SimplePosition(ref.Code, "AAPL"),
		},
		Orders: []broker.OrderData{{
			BrokerAccountCode: ref.Code,
			Symbol:            "AAPL",
			ConID:             265598,
			BrokerOrderID:     1001,
			Side:              "BUY",
			OrderType:         "LMT",
			LimitPrice:        decimalPtr("150.00"),
			TIF:               "DAY",
			Status:            "Submitted",
			CreatedTS:         now,
			UpdatedTS:         now,
		}},
		Executions: []broker.ExecutionData{{
			BrokerAccountCode: ref.Code,
			Symbol:            "AAPL",
			ConID:             265598,
			ExecID:            ref.Code + "-exec-1001",
			BrokerOrderID:     1001,
			FillTS:            now,
			Qty:               decimal.NewFromInt(10),
			Price:             decimal.RequireFromString("150.25"),
			Fee:               decimal.RequireFromString("1.00"),
			Venue:             "SIM",
		}},
	}, nil
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
