package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models gigline.yml.
type Config struct {
	Marketplace struct {
		Name           string  `yaml:"name"`
		Currency       string  `yaml:"currency"`
		OpeningBalance float64 `yaml:"opening_balance"`
	} `yaml:"marketplace"`
	Catalog struct {
		Skills     []string `yaml:"skills"`
		Categories []string `yaml:"categories"`
	} `yaml:"catalog"`
	Recommend struct {
		Limit int `yaml:"limit"`
	} `yaml:"recommend"`
	Seed struct {
		Demo bool `yaml:"demo"`
	} `yaml:"seed"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Marketplace.Name == "" {
		return fmt.Errorf("config.marketplace.name is required")
	}
	if c.Marketplace.OpeningBalance < 0 {
		return fmt.Errorf("config.marketplace.opening_balance must not be negative")
	}
	if c.Recommend.Limit <= 0 {
		return fmt.Errorf("config.recommend.limit must be positive")
	}
	for _, s := range c.Catalog.Skills {
		if s == "" {
			return fmt.Errorf("config.catalog.skills contains an empty entry")
		}
	}
	for _, cat := range c.Catalog.Categories {
		if cat == "" {
			return fmt.Errorf("config.catalog.categories contains an empty entry")
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "gigline.yml")
}

// Load reads config from the workspace, falling back to defaults when the
// file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in config.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `marketplace:
  name: gigline
  currency: USD
  opening_balance: 0

catalog:
  skills:
    - JavaScript
    - TypeScript
    - React
    - Node.js
    - Python
    - Design
    - UI/UX
    - Photography
    - Writing
    - Marketing
    - Data Entry
    - Translation
    - Video Editing
    - SEO
    - Mobile Dev
    - DevOps
    - Illustration
    - Social Media
    - Accounting
    - Customer Support

  categories:
    - Web Development
    - Mobile Development
    - Design & Creative
    - Writing & Translation
    - Marketing
    - Video & Animation
    - Data & Analytics
    - Business
    - Lifestyle
    - Other

recommend:
  limit: 5

seed:
  demo: true
`
