package harvest

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences a harvest run. All values
// originate from Viper so the engine can be configured via files, env vars,
// or CLI flags while staying decoupled from the config library.
type Config struct {
	UserAgent            string
	RequestTimeout       time.Duration
	RespectRobots        bool
	PerHostCap           int
	MaxCandidates        int
	RateLimitPerHost     int
	RenderEnabled        bool
	RenderTimeout        time.Duration
	RenderMaxConcurrency int
	RenderDomainQPS      float64
	DetectorMinHTMLBytes int
	DetectorKeywords     []string
	MaxPageBytes         int64
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		UserAgent:            v.GetString("harvest.user_agent"),
		RequestTimeout:       v.GetDuration("harvest.request_timeout"),
		RespectRobots:        v.GetBool("harvest.respect_robots"),
		PerHostCap:           v.GetInt("harvest.per_host_page_cap"),
		MaxCandidates:        v.GetInt("harvest.max_candidate_urls"),
		RateLimitPerHost:     v.GetInt("harvest.rate_limit_per_host"),
		RenderEnabled:        v.GetBool("harvest.render_enabled"),
		RenderTimeout:        v.GetDuration("harvest.render_timeout"),
		RenderMaxConcurrency: v.GetInt("harvest.render_max_concurrency"),
		RenderDomainQPS:      v.GetFloat64("harvest.render_domain_qps"),
		DetectorMinHTMLBytes: v.GetInt("detector.min_html_bytes"),
		DetectorKeywords:     normalizeKeywords(v.GetStringSlice("detector.keywords")),
		MaxPageBytes:         v.GetInt64("harvest.max_page_bytes"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("harvest.user_agent must be set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("harvest.request_timeout must be > 0")
	}
	if c.PerHostCap <= 0 {
		return fmt.Errorf("harvest.per_host_page_cap must be > 0")
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("harvest.max_candidate_urls must be > 0")
	}
	if c.RateLimitPerHost <= 0 {
		return fmt.Errorf("harvest.rate_limit_per_host must be > 0")
	}
	if c.RenderEnabled {
		if c.RenderTimeout <= 0 {
			return fmt.Errorf("harvest.render_timeout must be > 0")
		}
		if c.RenderMaxConcurrency <= 0 {
			return fmt.Errorf("harvest.render_max_concurrency must be > 0")
		}
	}
	if c.MaxPageBytes <= 0 {
		return fmt.Errorf("harvest.max_page_bytes must be > 0")
	}
	return nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{})
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
