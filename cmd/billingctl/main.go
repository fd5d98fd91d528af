package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/app"
	"github.com/neverMEH/Personabl-Developed/internal/config"
	"github.com/neverMEH/Personabl-Developed/pkg/logger"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Operate the billing service: migrations, catalog and change feed",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/billing.yaml or CONFIG_PATH)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(syncCatalogCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config and a logger for one command.
func setup() (*config.Config, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfigFrom(configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// withApp runs fn against a fully wired application and closes it afterwards.
func withApp(autoMigrate bool, fn func(a *app.App, log *zap.Logger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg.Database.AutoMigrate = autoMigrate
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("Failed to close application", zap.Error(err))
		}
	}()

	return fn(a, log)
}
