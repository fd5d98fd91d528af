package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/app"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create enum types, tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(a *app.App, log *zap.Logger) error {
				log.Info("Migrations applied")
				return nil
			})
		},
	}
}

func syncCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-catalog",
		Short: "Copy active Stripe products and recurring prices into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(a *app.App, log *zap.Logger) error {
				report, err := a.Services.Catalog.SyncFromProvider(cmd.Context())
				if err != nil {
					return err
				}
				printReport(cmd, report)
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products, prices and coupons from a YAML file",
		Long: `Load catalog rows from a YAML file. Rows are upserted by provider id
(products, prices) or by code (coupons), so the command can be re-run.

Examples:
  billingctl seed --file configs/seed.example.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeedFile(file)
			if err != nil {
				return err
			}

			return withApp(false, func(a *app.App, log *zap.Logger) error {
				report, err := applySeed(cmd.Context(), a.Services.Catalog, seed)
				if err != nil {
					return err
				}
				printReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print subscription change notifications as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(a *app.App, log *zap.Logger) error {
				client := a.Redis()
				if client == nil {
					return fmt.Errorf("redis is not configured or unreachable")
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				messages, err := client.Subscribe(ctx, a.Config.Redis.Channel)
				if err != nil {
					return err
				}

				log.Info("Watching subscription changes", zap.String("channel", a.Config.Redis.Channel))
				for msg := range messages {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", msg.Time.Format("2006-01-02T15:04:05Z07:00"), msg.Payload)
				}
				return nil
			})
		},
	}
}

func printReport(cmd *cobra.Command, report *usecase.SyncReport) {
	fmt.Fprintf(cmd.OutOrStdout(), "products: %d, prices: %d, coupons: %d, skipped: %d\n",
		report.Products, report.Prices, report.Coupons, report.Skipped)
}

