package intel

import "time"

// Config defines AI provider configuration for the intel layer.
//
// This is intentionally self-contained so it can later be extracted as a
// standalone library configuration subtree.
type Config struct {
	// DefaultProvider is used when no routing entry matches a role.
	DefaultProvider string        `mapstructure:"default_provider"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`

	// PromptsDir allows applications to override the built-in prompt set.
	PromptsDir string `mapstructure:"prompts_dir"`

	// Providers is a set of provider instances keyed by a user-defined id.
	Providers map[string]ProviderConfig `mapstructure:"providers"`

	// Routing maps roles (e.g. "synthesis", "extraction") to provider ids.
	Routing map[string]string `mapstructure:"routing"`
}

// ProviderConfig defines a configured provider instance.
type ProviderConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Kind is the driver identifier: "openrouter", "perplexity", "anthropic".
	Kind string `mapstructure:"kind"`

	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`

	// Model is the default model for this instance.
	Model string `mapstructure:"model"`
	// Models maps roles to model overrides.
	Models map[string]string `mapstructure:"models"`

	Roles []string `mapstructure:"roles"`
}
