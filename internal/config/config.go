// Package config bootstraps Viper for the harvester. Every knob has a
// default here so a bare binary runs against the public Overpass endpoint
// with local storage and no database.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable namespace, e.g.
// HARVEST_DISCOVERY_ENDPOINT overrides discovery.endpoint.
const EnvPrefix = "HARVEST"

// Init builds a Viper instance with defaults, env bindings, and an optional
// config file. An empty path searches the working directory and
// /etc/menuharvest for menuharvest.yaml; a missing file is not an error.
func Init(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("menuharvest")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/menuharvest")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)

	v.SetDefault("discovery.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("discovery.timeout", 90*time.Second)
	v.SetDefault("discovery.qps", 0.5)
	v.SetDefault("discovery.bbox.south", 0.0)
	v.SetDefault("discovery.bbox.west", 0.0)
	v.SetDefault("discovery.bbox.north", 0.0)
	v.SetDefault("discovery.bbox.east", 0.0)

	v.SetDefault("directory.endpoint", "")
	v.SetDefault("directory.api_key", "")
	v.SetDefault("directory.timeout", 10*time.Second)
	v.SetDefault("directory.qps", 4.0)
	v.SetDefault("dedup.radius_meters", 150.0)

	v.SetDefault("harvest.user_agent", "menuharvest-bot/0.1 (+https://platewise.example/bot)")
	v.SetDefault("harvest.request_timeout", 10*time.Second)
	v.SetDefault("harvest.respect_robots", true)
	v.SetDefault("harvest.per_host_page_cap", 2)
	v.SetDefault("harvest.max_candidate_urls", 20)
	v.SetDefault("harvest.rate_limit_per_host", 2)
	v.SetDefault("harvest.render_enabled", false)
	v.SetDefault("harvest.render_timeout", 25*time.Second)
	v.SetDefault("harvest.render_max_concurrency", 2)
	v.SetDefault("harvest.render_domain_qps", 0.5)
	v.SetDefault("harvest.max_page_bytes", 5*1024*1024)
	v.SetDefault("harvest.budget", 30*time.Minute)

	v.SetDefault("detector.min_html_bytes", 2048)
	v.SetDefault("detector.keywords", []string{"__NEXT_DATA__", "ng-app", "data-reactroot", "wixBiSession"})

	v.SetDefault("snapshot.provider", "local")
	v.SetDefault("snapshot.base_dir", "data/snapshots")
	v.SetDefault("snapshot.gcs_bucket", "")

	v.SetDefault("rows.dir", "data/rows")
	v.SetDefault("venues.log", "data/venues.jsonl")

	v.SetDefault("loader.dsn", "")
	v.SetDefault("loader.max_conns", 4)
	v.SetDefault("loader.min_conns", 0)
	v.SetDefault("loader.max_conn_lifetime", time.Hour)

	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.addr", ":9090")
}
