// Package config provides centralized configuration management for Canvas.
// Configuration is resolved in three layers: built-in defaults, an optional
// YAML config file, and CANVAS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load resolves configuration from defaults, an optional config file, and the
// environment. An empty cfgFile skips the file layer. Safe to call more than
// once; each call reads a fresh viper instance.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile = strings.TrimSpace(cfgFile); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "canvas.db")

	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.high_water", 100)
	v.SetDefault("cache.persist_ttl", "24h")
	v.SetDefault("cache.namespaces", map[string]string{
		"search":   "5m",
		"scrape":   "15m",
		"research": "10m",
	})

	// Conservative published limits with headroom; the throttler queues
	// rather than rejects, so tight limits only add latency.
	v.SetDefault("throttle", map[string]map[string]string{
		"brave":      {"max_calls_per_window": "15", "window_duration": "1m", "min_delay": "1100ms"},
		"firecrawl":  {"max_calls_per_window": "10", "window_duration": "1m", "min_delay": "1s"},
		"perplexity": {"max_calls_per_window": "20", "window_duration": "1m", "min_delay": "500ms"},
		"openrouter": {"max_calls_per_window": "30", "window_duration": "1m", "min_delay": "250ms"},
		"anthropic":  {"max_calls_per_window": "30", "window_duration": "1m", "min_delay": "250ms"},
	})

	v.SetDefault("research.brave.base_url", "https://api.search.brave.com")
	v.SetDefault("research.brave.timeout", "10s")
	v.SetDefault("research.firecrawl.base_url", "https://api.firecrawl.dev")
	v.SetDefault("research.firecrawl.timeout", "30s")
	v.SetDefault("research.max_sources", 5)
	v.SetDefault("research.queue_wait", "0s")

	v.SetDefault("intel.default_provider", "")
	v.SetDefault("intel.default_timeout", "60s")

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must not be negative")
	}
	for name, ttl := range cfg.Cache.Namespaces {
		if ttl <= 0 {
			return fmt.Errorf("cache.namespaces.%s must be a positive duration", name)
		}
	}
	for name, tc := range cfg.Throttle {
		if tc.WindowDuration < 0 || tc.MinDelay < 0 {
			return fmt.Errorf("throttle.%s has a negative duration", name)
		}
		if tc.WindowDuration > 0 && tc.MinDelay > tc.WindowDuration {
			return fmt.Errorf("throttle.%s min_delay exceeds window_duration", name)
		}
	}
	if cfg.Research.QueueWait < 0 {
		return fmt.Errorf("research.queue_wait must not be negative")
	}
	return nil
}

// ResolveDepthTimeout returns the outer deadline for a research run.
func ResolveDepthTimeout(depth string, base time.Duration) time.Duration {
	if base <= 0 {
		base = 60 * time.Second
	}
	if strings.EqualFold(strings.TrimSpace(depth), "deep") {
		return 3 * base
	}
	return base
}
