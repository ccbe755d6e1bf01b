package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pogolab/stackctl/pkg/config"
	"github.com/pogolab/stackctl/pkg/database"
	"github.com/pogolab/stackctl/pkg/history"
	"github.com/pogolab/stackctl/pkg/log"
	"github.com/pogolab/stackctl/pkg/reconciler"
	"github.com/pogolab/stackctl/pkg/types"
)

// loadConfig reads the env file named by the persistent flags and
// fills in the path settings
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	cfg.ConfigDir, _ = cmd.Flags().GetString("config-dir")
	cfg.ComposeFile, _ = cmd.Flags().GetString("compose-file")
	cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	return cfg, nil
}

// openClient connects to MariaDB as root and verifies the connection.
// A failure here is fatal for database-touching commands.
func openClient(ctx context.Context, cfg *config.Config) (*database.Client, error) {
	client, err := database.Open(database.Options{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     "root",
		Password: cfg.RootPassword,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("cannot reach MariaDB at %s:%d: %w", cfg.DBHost, cfg.DBPort, err)
	}
	return client, nil
}

// newReconciler builds the reconciler over the declared databases and
// the user set derived from the service configs
func newReconciler(cfg *config.Config, client *database.Client) *reconciler.Reconciler {
	return reconciler.New(client, types.RequiredDatabases, reconciler.DeriveUsers(cfg))
}

// openHistory opens the local run history; a failure is downgraded to
// a warning since history is a convenience, never a requirement
func openHistory(cfg *config.Config) *history.Store {
	store, err := history.Open(cfg.DataDir)
	if err != nil {
		logger := log.WithComponent("cli")
		logger.Warn().Err(err).Msg("run history unavailable")
		return nil
	}
	return store
}

// recordRun appends a finished run to history when the store is open
func recordRun(store *history.Store, run *types.RunRecord) {
	if store == nil || run == nil {
		return
	}
	if err := store.Append(run); err != nil {
		logger := log.WithComponent("cli")
		logger.Warn().Err(err).Msg("failed to record run history")
	}
}
