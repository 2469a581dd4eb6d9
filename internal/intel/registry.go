// Package intel routes completion requests to configured AI providers.
//
// A Registry resolves a role (e.g. "synthesis") to a provider instance and a
// driver, mirroring how the application routes search and scrape calls
// through named throttle buckets.
package intel

import (
	"fmt"
	"strings"
	"sync"

	"github.com/canvashq/canvas/internal/intel/driver"
	"github.com/canvashq/canvas/internal/intel/driver/anthropicdrv"
	"github.com/canvashq/canvas/internal/intel/driver/openrouter"
	"github.com/canvashq/canvas/internal/intel/driver/perplexity"
	"github.com/canvashq/canvas/internal/intel/prompt"
)

// Registry resolves roles to providers and caches constructed drivers.
type Registry struct {
	cfg     Config
	prompts *prompt.Registry

	mu      sync.Mutex
	drivers map[string]driver.Driver
}

// Resolved is a fully resolved provider for one request.
type Resolved struct {
	ProviderID string
	Provider   ProviderConfig
	Driver     driver.Driver
	Model      string
}

// NewRegistry builds a registry and loads the prompt set.
func NewRegistry(cfg Config) (*Registry, error) {
	prompts, err := prompt.NewRegistry(cfg.PromptsDir)
	if err != nil {
		return nil, err
	}
	return &Registry{cfg: cfg, prompts: prompts}, nil
}

// Prompts exposes the prompt registry.
func (r *Registry) Prompts() *prompt.Registry {
	if r == nil {
		return nil
	}
	return r.prompts
}

// Resolve selects the provider and model for a role. modelOverride, when
// non-empty, wins over per-role and instance defaults.
func (r *Registry) Resolve(role, modelOverride string) (*Resolved, error) {
	providerID, providerCfg, err := r.resolveProvider(role)
	if err != nil {
		return nil, err
	}

	drv, err := r.driverFor(providerID, providerCfg)
	if err != nil {
		return nil, err
	}

	model := strings.TrimSpace(modelOverride)
	if model == "" {
		if m, ok := providerCfg.Models[strings.TrimSpace(role)]; ok {
			model = strings.TrimSpace(m)
		}
	}
	if model == "" {
		model = strings.TrimSpace(providerCfg.Model)
	}
	if model == "" {
		return nil, fmt.Errorf("no model configured for provider %q", providerID)
	}

	return &Resolved{
		ProviderID: providerID,
		Provider:   providerCfg,
		Driver:     drv,
		Model:      model,
	}, nil
}

func (r *Registry) resolveProvider(role string) (string, ProviderConfig, error) {
	if r == nil {
		return "", ProviderConfig{}, fmt.Errorf("intel registry not configured")
	}

	role = strings.TrimSpace(role)
	if role != "" {
		if providerID, ok := r.cfg.Routing[role]; ok {
			providerID = strings.TrimSpace(providerID)
			if providerID != "" {
				providerCfg, ok := r.cfg.Providers[providerID]
				if !ok {
					return "", ProviderConfig{}, fmt.Errorf("unknown provider %q for role %q", providerID, role)
				}
				if !providerCfg.Enabled {
					return "", ProviderConfig{}, fmt.Errorf("provider %q is disabled", providerID)
				}
				return providerID, providerCfg, nil
			}
		}

		for providerID, providerCfg := range r.cfg.Providers {
			if providerCfg.Enabled && contains(providerCfg.Roles, role) {
				return providerID, providerCfg, nil
			}
		}
	}

	if id := strings.TrimSpace(r.cfg.DefaultProvider); id != "" {
		providerCfg, ok := r.cfg.Providers[id]
		if !ok {
			return "", ProviderConfig{}, fmt.Errorf("default provider %q not configured", id)
		}
		if !providerCfg.Enabled {
			return "", ProviderConfig{}, fmt.Errorf("default provider %q is disabled", id)
		}
		return id, providerCfg, nil
	}

	// With exactly one enabled provider there is nothing to route.
	var onlyID string
	var onlyCfg ProviderConfig
	for providerID, providerCfg := range r.cfg.Providers {
		if !providerCfg.Enabled {
			continue
		}
		if onlyID != "" {
			return "", ProviderConfig{}, fmt.Errorf("no provider routing configured")
		}
		onlyID = providerID
		onlyCfg = providerCfg
	}
	if onlyID == "" {
		return "", ProviderConfig{}, fmt.Errorf("no enabled providers configured")
	}
	return onlyID, onlyCfg, nil
}

func (r *Registry) driverFor(providerID string, cfg ProviderConfig) (driver.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.drivers == nil {
		r.drivers = make(map[string]driver.Driver)
	}
	if drv, ok := r.drivers[providerID]; ok {
		return drv, nil
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider %q has no api key configured", providerID)
	}

	var drv driver.Driver
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "openrouter":
		client := openrouter.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		drv = client
	case "perplexity":
		client := perplexity.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		drv = client
	case "anthropic":
		client := anthropicdrv.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		drv = client
	default:
		return nil, fmt.Errorf("unsupported provider kind %q for %q", cfg.Kind, providerID)
	}

	r.drivers[providerID] = drv
	return drv, nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}
