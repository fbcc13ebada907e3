// Package cli assembles the command tree. Every command loads the
// config, wires the pipeline and tears it down when done.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wheelhouse/internal/ingest"
	"wheelhouse/internal/scheduler"
	"wheelhouse/internal/store/model"
	"wheelhouse/internal/strategy"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wheelhouse",
		Short: "Broker ingestion and strategy execution pipeline",
		Long: `wheelhouse pulls account state from brokers into a local store,
runs configured strategy instances against it and records advice.
It never places orders.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", defaultConfigPath(), "configuration file path")

	rootCmd.AddCommand(
		newSyncCmd("sync-accounts", "Sync account snapshots", syncSnapshots),
		newSyncCmd("sync-positions", "Sync open positions", syncPositions),
		newSyncCmd("sync-orders", "Sync open orders", syncOrders),
		newSyncCmd("sync-executions", "Sync recent executions", syncExecutions),
		newSyncCmd("sync-option-events", "Sync option lifecycle events", syncOptionEvents),
		newSyncAllCmd(),
		newRunStrategiesCmd(),
		newListStrategiesCmd(),
		newInspectRunsCmd(),
		newPlanViewCmd(),
		newDaemonCmd(),
		newSeedCmd(),
	)
	return rootCmd
}

func defaultConfigPath() string {
	if p := os.Getenv("WHEELHOUSE_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	rt, err := newRuntime(cfgPath)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(cmd.Context(), rt)
}

type syncFn func(ctx context.Context, rt *runtime, account model.Account) (ingest.Summary, error)

func syncSnapshots(ctx context.Context, rt *runtime, a model.Account) (ingest.Summary, error) {
	return rt.syncer.SyncAccountSummary(ctx, a)
}
func syncPositions(ctx context.Context, rt *runtime, a model.Account) (ingest.Summary, error) {
	return rt.syncer.SyncPositions(ctx, a)
}
func syncOrders(ctx context.Context, rt *runtime, a model.Account) (ingest.Summary, error) {
	return rt.syncer.SyncOrders(ctx, a)
}
func syncExecutions(ctx context.Context, rt *runtime, a model.Account) (ingest.Summary, error) {
	return rt.syncer.SyncExecutions(ctx, a)
}
func syncOptionEvents(ctx context.Context, rt *runtime, a model.Account) (ingest.Summary, error) {
	return rt.syncer.SyncOptionEvents(ctx, a)
}

func newSyncCmd(use, short string, run syncFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				accountCode, _ := cmd.Flags().GetString("account")
				accounts, err := matchingAccounts(ctx, rt, accountCode)
				if err != nil {
					return err
				}
				var failed int
				for _, account := range accounts {
					summary, err := run(ctx, rt, account)
					if err != nil {
						failed++
						fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  FAILED: %v\n", account.AccountCode, account.Kind, err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  %s\n", account.AccountCode, account.Kind, summary)
				}
				if failed > 0 {
					return fmt.Errorf("%d account(s) failed", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("account", "", "limit to one broker account code")
	return cmd
}

func matchingAccounts(ctx context.Context, rt *runtime, accountCode string) ([]model.Account, error) {
	accounts, err := rt.store.Repos().Accounts().List(ctx, rt.cfg.Sync.AccountKinds...)
	if err != nil {
		return nil, err
	}
	if accountCode == "" {
		if len(accounts) == 0 {
			return nil, fmt.Errorf("no broker accounts configured; run seed or add accounts first")
		}
		return accounts, nil
	}
	for _, account := range accounts {
		if account.AccountCode == accountCode {
			return []model.Account{account}, nil
		}
	}
	return nil, fmt.Errorf("unknown account code %q", accountCode)
}

func newSyncAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all",
		Short: "Run every sync job for every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				results, err := rt.syncer.SyncAll(ctx, rt.cfg.Sync.AccountKinds, rt.cfg.Sync.Parallelism)
				if err != nil {
					return err
				}
				return printBatchResults(cmd, results)
			})
		},
	}
}

func printBatchResults(cmd *cobra.Command, results []ingest.AccountResult) error {
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  FAILED: %v\n", res.AccountCode, res.Kind, res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"%-12s %s  snapshots(%s) positions(%s) orders(%s) executions(%s) option_events(%s)\n",
			res.AccountCode, res.Kind,
			res.Snapshots, res.Positions, res.Orders, res.Executions, res.OptionEvents)
	}
	if failed > 0 {
		return fmt.Errorf("%d account(s) failed", failed)
	}
	return nil
}

func newRunStrategiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-strategies",
		Short: "Run all enabled strategy instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				slug, _ := cmd.Flags().GetString("slug")
				dryRun, _ := cmd.Flags().GetBool("dry-run")
				outcomes, err := rt.orchestrator.RunAll(ctx, slug, model.RunModeManual, dryRun)
				if err != nil {
					return err
				}
				var failed int
				for _, outcome := range outcomes {
					if outcome.Err != nil {
						failed++
						fmt.Fprintf(cmd.OutOrStdout(), "%-24s FAILED: %v\n", outcome.InstanceName, outcome.Err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s  %d recommendation(s)\n",
						outcome.InstanceName, outcome.Status, outcome.Recommendations)
				}
				if failed > 0 {
					return fmt.Errorf("%d instance(s) failed", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("slug", "", "limit to one strategy definition slug")
	cmd.Flags().Bool("dry-run", false, "evaluate without persisting recommendations")
	return cmd
}

func newListStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-strategies",
		Short: "List stored strategy versions and whether they resolve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				statuses, err := rt.registry.ListRegistered(ctx, rt.store.Repos())
				if err != nil {
					return err
				}
				for _, status := range statuses {
					state := "ok"
					if status.Err != nil {
						state = "BROKEN: " + status.Err.Error()
					}
					schema := "no schema"
					if status.HasSchema {
						schema = "schema"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-8s %-44s %-10s %s\n",
						status.Slug, status.Version, status.CodeRef, schema, state)
				}
				return nil
			})
		},
	}
}

func newInspectRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect-runs INSTANCE",
		Short: "Show recent runs for a strategy instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				limit, _ := cmd.Flags().GetInt("limit")
				instance, err := findInstance(ctx, rt, args[0])
				if err != nil {
					return err
				}
				runs, err := rt.store.Repos().Runs().ListForInstance(ctx, instance.ID, limit)
				if err != nil {
					return err
				}
				for _, run := range runs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-11s %-6s %6dms",
						run.RunTS.Format(time.RFC3339), run.Status, run.Mode, run.DurationMS)
					if run.ErrorTrace != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "  error: %.120s", run.ErrorTrace)
					}
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 20, "maximum runs to show")
	return cmd
}

func findInstance(ctx context.Context, rt *runtime, nameOrID string) (*model.StrategyInstance, error) {
	instances, err := rt.store.Repos().Strategies().ListEnabledInstances(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range instances {
		if instances[i].Name == nameOrID {
			return &instances[i], nil
		}
	}
	instance, err := rt.store.Repos().Strategies().GetInstance(ctx, nameOrID)
	if err != nil {
		return nil, fmt.Errorf("no strategy instance named %q", nameOrID)
	}
	return instance, nil
}

func newPlanViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan-view INSTANCE",
		Short: "Show recent recommendations grouped into execution plans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				hours, _ := cmd.Flags().GetInt("since-hours")
				instance, err := findInstance(ctx, rt, args[0])
				if err != nil {
					return err
				}
				since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
				recs, err := rt.store.Repos().Recommendations().ListForInstanceSince(ctx, instance.ID, since)
				if err != nil {
					return err
				}
				groups := strategy.BuildExecutionPlanView(recs)
				for _, group := range groups {
					fmt.Fprintf(cmd.OutOrStdout(), "plan %s (max confidence %s)\n", group.Key, group.MaxConfidence)
					for _, rec := range group.Recommendations {
						fmt.Fprintf(cmd.OutOrStdout(), "  %-14s conf=%-6s %s\n",
							rec.Action, rec.Confidence, rec.Rationale)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("since-hours", 24, "recommendation window in hours")
	return cmd
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run periodic sync + strategy cycles until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(_ context.Context, rt *runtime) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				sched := scheduler.NewAlignedScheduler(ctx,
					time.Duration(rt.cfg.Engine.IntervalSeconds)*time.Second, 0)
				sched.Name = "pipeline"
				sched.RunImmediately = true
				sched.Start(func() {
					if results, err := rt.syncer.SyncAll(ctx, rt.cfg.Sync.AccountKinds, rt.cfg.Sync.Parallelism); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "sync cycle failed: %v\n", err)
					} else {
						_ = printBatchResults(cmd, results)
					}
					outcomes, err := rt.orchestrator.RunAll(ctx, "", model.RunModeDaily, false)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "strategy cycle failed: %v\n", err)
						return
					}
					for _, outcome := range outcomes {
						if outcome.Err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "instance %s failed: %v\n", outcome.InstanceName, outcome.Err)
						}
					}
				})
				return nil
			})
		},
	}
}
