// Package prompt loads reusable prompt definitions: markdown files with YAML
// frontmatter. Applications may override the built-in set with a prompts
// directory.
package prompt

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Config is the frontmatter of a prompt definition.
type Config struct {
	Slug           string   `yaml:"slug"`
	Description    string   `yaml:"description,omitempty"`
	Model          string   `yaml:"model,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
	MaxTokens      int      `yaml:"max_tokens,omitempty"`
	SystemTemplate string   `yaml:"system_template,omitempty"`
}

// Prompt is a parsed prompt definition.
type Prompt struct {
	Config Config
	// Source records where the prompt came from ("builtin" or a file path).
	Source string
}

// Render executes the user-facing template body with the supplied data.
func (p *Prompt) Render(body string, data any) (string, error) {
	tmpl, err := template.New(p.Config.Slug).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse prompt template %s: %w", p.Config.Slug, err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", p.Config.Slug, err)
	}
	return out.String(), nil
}

// Load parses and validates a prompt definition from markdown bytes.
func Load(source string, data []byte) (*Prompt, error) {
	cfg, body, err := parseFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}

	if strings.TrimSpace(cfg.SystemTemplate) == "" {
		cfg.SystemTemplate = strings.TrimSpace(body)
	}
	if strings.TrimSpace(cfg.SystemTemplate) == "" {
		return nil, fmt.Errorf("prompt %s missing system_template", source)
	}
	if strings.TrimSpace(cfg.Slug) == "" {
		return nil, fmt.Errorf("prompt %s missing slug", source)
	}

	return &Prompt{Config: cfg, Source: source}, nil
}

// LoadFromDir reads all prompt files (.md with YAML frontmatter) from a
// directory.
func LoadFromDir(dir string) ([]*Prompt, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan prompts: %w", err)
	}

	results := make([]*Prompt, 0, len(entries))
	for _, path := range entries {
		data, err := os.ReadFile(path) // #nosec G304 -- prompt path is user-provided
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", path, err)
		}
		p, err := Load(path, data)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, nil
}

// Registry resolves prompts by slug, with directory overrides layered on top
// of the built-in set.
type Registry struct {
	prompts map[string]*Prompt
}

// NewRegistry builds a registry from the built-in prompts plus an optional
// override directory.
func NewRegistry(promptsDir string) (*Registry, error) {
	prompts := make(map[string]*Prompt)
	for _, p := range builtins() {
		prompts[p.Config.Slug] = p
	}

	if dir := strings.TrimSpace(promptsDir); dir != "" {
		loaded, err := LoadFromDir(dir)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			prompts[p.Config.Slug] = p
		}
	}

	return &Registry{prompts: prompts}, nil
}

// Get returns the prompt for a slug.
func (r *Registry) Get(slug string) (*Prompt, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry not configured")
	}
	p, ok := r.prompts[strings.TrimSpace(slug)]
	if !ok {
		return nil, fmt.Errorf("unknown prompt: %s", slug)
	}
	return p, nil
}

// Slugs lists the registered prompt slugs.
func (r *Registry) Slugs() []string {
	if r == nil {
		return nil
	}
	slugs := make([]string, 0, len(r.prompts))
	for slug := range r.prompts {
		slugs = append(slugs, slug)
	}
	return slugs
}

func parseFrontmatter(data []byte) (Config, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Config{}, "", fmt.Errorf("empty prompt")
	}

	lines := bufio.NewScanner(bytes.NewReader(trimmed))
	lines.Split(bufio.ScanLines)

	var (
		frontmatter []string
		body        []string
		inFront     bool
		headerSeen  bool
	)

	for lines.Scan() {
		line := lines.Text()
		switch {
		case !headerSeen && strings.TrimSpace(line) == "---":
			headerSeen = true
			inFront = true
		case headerSeen && inFront && strings.TrimSpace(line) == "---":
			inFront = false
		default:
			if inFront {
				frontmatter = append(frontmatter, line)
			} else {
				body = append(body, line)
			}
		}
	}
	if err := lines.Err(); err != nil {
		return Config{}, "", err
	}
	if inFront {
		return Config{}, "", fmt.Errorf("unterminated frontmatter")
	}

	var cfg Config
	if len(frontmatter) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(frontmatter, "\n")), &cfg); err != nil {
			return Config{}, "", err
		}
	}

	return cfg, strings.Join(body, "\n"), nil
}
