package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/app"
	"github.com/platewise/menuharvest/internal/config"
	"github.com/platewise/menuharvest/internal/logging"
	"github.com/platewise/menuharvest/internal/publisher"
	"github.com/platewise/menuharvest/internal/snapshot"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface the commands use. Tests swap in a
// mock via the newApp factory.
type App interface {
	Close()
	GetViper() *viper.Viper
	GetLogger() *zap.Logger
	GetSnapshots() *snapshot.Store
	GetPublisher() publisher.Publisher
}

// newApp is the application factory, replaceable in tests.
var newApp = func(ctx context.Context, v *viper.Viper) (App, error) {
	return app.NewApp(ctx, v)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menuharvest",
		Short: "Discovers restaurants and harvests their menus from the open web.",
		Long: `menuharvest runs the PlateWise ingestion pipeline in three stages:
discover finds food venues inside a bounding box and records them in the
venue log, harvest fetches and parses each venue's website for menu items,
and load bulk-upserts the harvested rows into Postgres.`,

		// Runs after flag parsing but before the subcommand's RunE; builds
		// the App and stores it in the context for subcommands.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.Init(cfgFile)
			if err != nil {
				return err
			}
			if v.GetBool("logging.development") {
				logger, lerr := logging.New(true)
				if lerr != nil {
					return fmt.Errorf("init development logger: %w", lerr)
				}
				logging.L = logger
				zap.ReplaceGlobals(logger)
			}

			appInstance, err := newApp(cmd.Context(), v)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches . and /etc/menuharvest)")

	cmd.AddCommand(newDiscoverCmd())
	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newLoadCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
