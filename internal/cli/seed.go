package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/datatypes"

	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
	"wheelhouse/internal/strategy"
)

// Demo fixture names.
const (
	seedClientName   = "demo"
	seedAccountCode  = "DU0000001"
	seedInstanceName = "wheel-demo"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo client, SIM account, portfolio and wheel instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return rt.store.WithTx(ctx, func(repos store.Repos) error {
					existing, err := repos.Clients().FindByName(ctx, seedClientName)
					if err != nil {
						return err
					}
					if existing != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "demo data already seeded (client %s)\n", existing.ID)
						return nil
					}

					client := &model.Client{Name: seedClientName, IsActive: true}
					if err := repos.Clients().Create(ctx, client); err != nil {
						return err
					}
					account := &model.Account{
						ClientID:     client.ID,
						Kind:         model.KindSimulated,
						AccountCode:  seedAccountCode,
						BaseCurrency: "USD",
						Nickname:     "demo sim account",
					}
					if err := repos.Accounts().Create(ctx, account); err != nil {
						return err
					}
					portfolio := &model.Portfolio{
						ClientID:     client.ID,
						Name:         "demo portfolio",
						BaseCurrency: "USD",
						AccountID:    account.ID,
					}
					if err := repos.Portfolios().Create(ctx, portfolio); err != nil {
						return err
					}

					def := &model.StrategyDefinition{
						Name:        "Wheel",
						Slug:        "wheel",
						Description: "Cash-secured puts rolled into covered calls.",
					}
					if err := repos.Strategies().CreateDefinition(ctx, def); err != nil {
						return err
					}
					version := &model.StrategyVersion{
						DefinitionID: def.ID,
						Version:      "v1",
						CodeRef:      strategy.CodeRefWheelV1,
					}
					if err := repos.Strategies().CreateVersion(ctx, version); err != nil {
						return err
					}
					instance := &model.StrategyInstance{
						ClientID:    client.ID,
						Name:        seedInstanceName,
						VersionID:   version.ID,
						PortfolioID: &portfolio.ID,
						Enabled:     true,
						Config: datatypes.JSONMap{
							"target_symbols":      []any{"AAPL", "MSFT"},
							"max_concurrent_puts": 2,
							"target_delta":        0.30,
						},
					}
					if err := repos.Strategies().CreateInstance(ctx, instance); err != nil {
						return err
					}

					fmt.Fprintf(cmd.OutOrStdout(),
						"seeded client=%s account=%s portfolio=%s instance=%s\n",
						client.Name, account.AccountCode, portfolio.Name, instance.Name)
					return nil
				})
			})
		},
	}
}
