package intel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		DefaultProvider: "router",
		Providers: map[string]ProviderConfig{
			"router": {
				Enabled: true,
				Kind:    "openrouter",
				APIKey:  "sk-test",
				Model:   "anthropic/claude-sonnet-4.5",
				Models:  map[string]string{"synthesis": "anthropic/claude-opus-4.5"},
			},
			"sonar": {
				Enabled: true,
				Kind:    "perplexity",
				APIKey:  "pplx-test",
				Model:   "sonar-pro",
				Roles:   []string{"grounded-search"},
			},
			"disabled": {
				Enabled: false,
				Kind:    "anthropic",
				APIKey:  "sk-ant",
				Model:   "claude-sonnet-4-5",
			},
		},
		Routing: map[string]string{
			"synthesis": "router",
		},
	}
}

func TestResolveRoutedRole(t *testing.T) {
	reg, err := NewRegistry(testConfig())
	require.NoError(t, err)

	resolved, err := reg.Resolve("synthesis", "")
	require.NoError(t, err)
	require.Equal(t, "router", resolved.ProviderID)
	require.Equal(t, "openrouter", resolved.Driver.Name())
	require.Equal(t, "anthropic/claude-opus-4.5", resolved.Model)
}

func TestResolveRoleByProviderRoles(t *testing.T) {
	reg, err := NewRegistry(testConfig())
	require.NoError(t, err)

	resolved, err := reg.Resolve("grounded-search", "")
	require.NoError(t, err)
	require.Equal(t, "sonar", resolved.ProviderID)
	require.Equal(t, "sonar-pro", resolved.Model)
}

func TestResolveModelOverrideWins(t *testing.T) {
	reg, err := NewRegistry(testConfig())
	require.NoError(t, err)

	resolved, err := reg.Resolve("synthesis", "meta-llama/llama-4")
	require.NoError(t, err)
	require.Equal(t, "meta-llama/llama-4", resolved.Model)
}

func TestResolveFallsBackToDefaultProvider(t *testing.T) {
	reg, err := NewRegistry(testConfig())
	require.NoError(t, err)

	resolved, err := reg.Resolve("unrouted-role", "")
	require.NoError(t, err)
	require.Equal(t, "router", resolved.ProviderID)
	require.Equal(t, "anthropic/claude-sonnet-4.5", resolved.Model)
}

func TestResolveDisabledProviderRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Routing["synthesis"] = "disabled"
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	_, err = reg.Resolve("synthesis", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "disabled")
}

func TestResolveMissingAPIKey(t *testing.T) {
	cfg := testConfig()
	provider := cfg.Providers["router"]
	provider.APIKey = ""
	cfg.Providers["router"] = provider

	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	_, err = reg.Resolve("synthesis", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no api key")
}

func TestResolveSingleEnabledProviderWithoutRouting(t *testing.T) {
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"only": {Enabled: true, Kind: "anthropic", APIKey: "sk-ant", Model: "claude-sonnet-4-5"},
		},
	}
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	resolved, err := reg.Resolve("anything", "")
	require.NoError(t, err)
	require.Equal(t, "only", resolved.ProviderID)
	require.Equal(t, "anthropic", resolved.Driver.Name())
}

func TestResolveUnsupportedKind(t *testing.T) {
	cfg := Config{
		DefaultProvider: "bad",
		Providers: map[string]ProviderConfig{
			"bad": {Enabled: true, Kind: "cohere", APIKey: "key", Model: "command"},
		},
	}
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	_, err = reg.Resolve("", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported provider kind")
}
