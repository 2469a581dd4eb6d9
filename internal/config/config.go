package config

import (
	"time"

	"github.com/canvashq/canvas/internal/core/store"
	"github.com/canvashq/canvas/internal/core/throttle"
	"github.com/canvashq/canvas/internal/intel"
)

// Config is the complete application configuration. Values come from three
// layers: built-in defaults, an optional YAML config file, and CANVAS_*
// environment variables. Throttle and cache parameters are startup-time
// constants; there is no runtime reconfiguration.
type Config struct {
	Server   ServerConfig               `mapstructure:"server"`
	Store    store.Config               `mapstructure:"store"`
	Cache    CacheConfig                `mapstructure:"cache"`
	Throttle map[string]throttle.Config `mapstructure:"throttle"`
	Research ResearchConfig             `mapstructure:"research"`
	Intel    intel.Config               `mapstructure:"intel"`
	Logging  LoggingConfig              `mapstructure:"logging"`
	Metrics  MetricsConfig              `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheConfig contains in-memory response cache settings. PersistTTL governs
// the separate long-lived research cache in the store.
type CacheConfig struct {
	DefaultTTL time.Duration            `mapstructure:"default_ttl"`
	HighWater  int                      `mapstructure:"high_water"`
	Namespaces map[string]time.Duration `mapstructure:"namespaces"`
	PersistTTL time.Duration            `mapstructure:"persist_ttl"`
}

// ResearchConfig configures the research engine and the search/scrape
// provider wrappers.
type ResearchConfig struct {
	Brave     BraveConfig     `mapstructure:"brave"`
	Firecrawl FirecrawlConfig `mapstructure:"firecrawl"`

	// MaxSources caps how many search hits feed a synthesis prompt.
	MaxSources int `mapstructure:"max_sources"`
	// QueueWait bounds how long a research run waits on a throttle slot.
	// Zero means wait indefinitely.
	QueueWait time.Duration `mapstructure:"queue_wait"`
}

// BraveConfig configures the Brave web search wrapper.
type BraveConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FirecrawlConfig configures the Firecrawl scrape wrapper.
type FirecrawlConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: trace, debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}
