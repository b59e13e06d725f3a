package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/loader"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-upserts harvested rows into Postgres",
		Long: `Reads the restaurants, menus, and menu items produced by a harvest run
and upserts them into the configured Postgres database. Rows are keyed by
their deterministic ids, so loading the same directory twice is a no-op.`,

		RunE: runLoadCommand,
	}
	return cmd
}

func runLoadCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	v := appInstance.GetViper()
	logger := appInstance.GetLogger()
	ctx := cmd.Context()

	store, err := loader.New(ctx, loader.Config{
		DSN:             v.GetString("loader.dsn"),
		MaxConns:        v.GetInt32("loader.max_conns"),
		MinConns:        v.GetInt32("loader.min_conns"),
		MaxConnLifetime: v.GetDuration("loader.max_conn_lifetime"),
	}, logger)
	if err != nil {
		return fmt.Errorf("connect loader: %w", err)
	}
	defer store.Close()

	counts, err := store.LoadDir(ctx, v.GetString("rows.dir"))
	if err != nil {
		return fmt.Errorf("load rows: %w", err)
	}

	logger.Info("Load command finished",
		zap.Int("restaurants", counts.Restaurants),
		zap.Int("menus", counts.Menus),
		zap.Int("items", counts.Items),
	)
	return nil
}
