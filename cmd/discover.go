// Package cmd defines and implements the CLI commands for the menuharvest
// executable.
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/discovery"
	"github.com/platewise/menuharvest/internal/enrich"
	"github.com/platewise/menuharvest/internal/venue"
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Finds food venues in a bounding box and records them in the venue log",
		Long: `Queries the configured POI service for restaurants, cafes, and bars
inside a bounding box, optionally enriches them against a business directory,
drops duplicates of venues already in the log, and appends the rest.`,

		RunE: runDiscoverCommand,
	}
	cmd.Flags().String("bbox", "", "bounding box as south,west,north,east (overrides config)")
	return cmd
}

func runDiscoverCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	v := appInstance.GetViper()
	logger := appInstance.GetLogger()
	ctx := cmd.Context()

	box, err := resolveBoundingBox(cmd, v)
	if err != nil {
		return err
	}

	client := discovery.NewClient(discovery.Config{
		Endpoint:  v.GetString("discovery.endpoint"),
		UserAgent: v.GetString("harvest.user_agent"),
		Timeout:   v.GetDuration("discovery.timeout"),
		QPS:       v.GetFloat64("discovery.qps"),
	}, logger)

	result, err := client.FoodVenues(ctx, box)
	if err != nil {
		return fmt.Errorf("discover venues: %w", err)
	}
	logger.Info("Discovery returned venues", zap.Int("count", len(result.Venues)))

	runID := uuid.NewString()
	if _, serr := appInstance.GetSnapshots().SaveDiscovery(ctx, runID, result.Raw); serr != nil {
		logger.Warn("Failed to archive raw discovery response", zap.Error(serr))
	}

	var dir enrich.Directory
	if httpDir := enrich.NewHTTPDirectory(enrich.DirectoryConfig{
		Endpoint:  v.GetString("directory.endpoint"),
		APIKey:    v.GetString("directory.api_key"),
		UserAgent: v.GetString("harvest.user_agent"),
		Timeout:   v.GetDuration("directory.timeout"),
		QPS:       v.GetFloat64("directory.qps"),
	}); httpDir != nil {
		dir = httpDir
	}
	enriched := enrich.Enrich(ctx, dir, result.Venues, logger)

	log, err := venue.OpenLog(v.GetString("venues.log"))
	if err != nil {
		return fmt.Errorf("open venue log: %w", err)
	}
	defer func() {
		if cerr := log.Close(); cerr != nil {
			logger.Warn("Failed to close venue log", zap.Error(cerr))
		}
	}()

	existing, err := log.LoadIDs()
	if err != nil {
		return fmt.Errorf("load venue log: %w", err)
	}

	fresh := enrich.Dedup(enriched, existing, v.GetFloat64("dedup.radius_meters"), logger)
	for _, ven := range fresh {
		if aerr := log.Append(ven); aerr != nil {
			return fmt.Errorf("append venue %s: %w", ven.ID, aerr)
		}
	}

	logger.Info("Discover command finished",
		zap.String("run_id", runID),
		zap.Int("discovered", len(result.Venues)),
		zap.Int("appended", len(fresh)),
		zap.Int("already_known", len(enriched)-len(fresh)),
	)
	return nil
}

func resolveBoundingBox(cmd *cobra.Command, v *viper.Viper) (discovery.BoundingBox, error) {
	raw, _ := cmd.Flags().GetString("bbox")
	if raw == "" {
		box := discovery.BoundingBox{
			South: v.GetFloat64("discovery.bbox.south"),
			West:  v.GetFloat64("discovery.bbox.west"),
			North: v.GetFloat64("discovery.bbox.north"),
			East:  v.GetFloat64("discovery.bbox.east"),
		}
		if box == (discovery.BoundingBox{}) {
			return box, fmt.Errorf("no bounding box configured; set discovery.bbox.* or pass --bbox")
		}
		return box, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return discovery.BoundingBox{}, fmt.Errorf("bbox must be south,west,north,east")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return discovery.BoundingBox{}, fmt.Errorf("parse bbox component %q: %w", p, err)
		}
		vals[i] = f
	}
	return discovery.BoundingBox{South: vals[0], West: vals[1], North: vals[2], East: vals[3]}, nil
}
