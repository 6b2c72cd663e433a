// Package models defines data structures for configuration and classification.
package models

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel  = "qwen3:8b"
	DefaultAPIURL = "http://127.0.0.1:11434/api/generate"
)

// Environment variables that override values from the config file.
const (
	EnvRules     = "FEEDFILTER_RULES"
	EnvModel     = "FEEDFILTER_MODEL"
	EnvAPIURL    = "FEEDFILTER_API_URL"
	EnvAPIKey    = "FEEDFILTER_API_KEY"
	EnvAPIFormat = "FEEDFILTER_API_FORMAT"
)

// Selectors describes the page structure the filter understands.
// Every field is a CSS selector group.
type Selectors struct {
	// Cards matches content cards (listing cards and sidebar recommendations).
	Cards string `yaml:"cards" json:"cards"`
	// Titles matches the title-bearing descendant inside a card.
	Titles string `yaml:"titles" json:"titles"`
	// Containers matches the candidate roots to observe, narrowest first.
	Containers string `yaml:"containers" json:"containers"`
	// Widen matches containers whose own mutations are unreliable; when the
	// chosen root matches it the whole body is observed instead.
	Widen string `yaml:"widen" json:"widen"`
}

// DefaultSelectors returns the card shapes of the home feed, search results
// and the recommendation sidebar next to an open video.
func DefaultSelectors() Selectors {
	return Selectors{
		Cards:      "div.bili-video-card, div.video-page-card-small",
		Titles:     "h3.bili-video-card__info--tit, p.title",
		Containers: "div.container, div.video-list, div.rec-list",
		Widen:      "div.video-list",
	}
}

// FilterConfig holds the read-only settings for one page load.
type FilterConfig struct {
	Rules     string    `yaml:"rules" json:"rules"`
	Model     string    `yaml:"model" json:"model"`
	APIURL    string    `yaml:"apiUrl" json:"apiUrl"`
	APIKey    string    `yaml:"apiKey" json:"-"`
	APIFormat Dialect   `yaml:"apiFormat" json:"apiFormat"`
	Selectors Selectors `yaml:"selectors" json:"selectors"`
}

// DefaultConfig returns a config pointing at a local Ollama server.
func DefaultConfig() *FilterConfig {
	return &FilterConfig{
		Model:     DefaultModel,
		APIURL:    DefaultAPIURL,
		APIFormat: DialectOllama,
		Selectors: DefaultSelectors(),
	}
}

// LoadConfig reads the YAML file at path on top of the defaults, then applies
// values from envFile (if it exists) and the process environment.
// A missing config file is not an error; the defaults and environment are used.
func LoadConfig(path, envFile string) (*FilterConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *FilterConfig) applyEnv() {
	if v, ok := os.LookupEnv(EnvRules); ok {
		c.Rules = v
	}
	if v, ok := os.LookupEnv(EnvModel); ok && v != "" {
		c.Model = v
	}
	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvAPIFormat); ok && v != "" {
		c.APIFormat = Dialect(v)
	}
}

// Normalize fills blank fields with defaults and validates the result.
func (c *FilterConfig) Normalize() error {
	defaults := DefaultSelectors()
	if c.Selectors.Cards == "" {
		c.Selectors.Cards = defaults.Cards
	}
	if c.Selectors.Titles == "" {
		c.Selectors.Titles = defaults.Titles
	}
	if c.Selectors.Containers == "" {
		c.Selectors.Containers = defaults.Containers
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	c.APIURL = strings.TrimSpace(c.APIURL)
	if c.APIURL == "" {
		return errors.New("apiUrl must not be empty")
	}
	c.APIKey = strings.TrimSpace(c.APIKey)

	dialect, err := ParseDialect(string(c.APIFormat))
	if err != nil {
		return err
	}
	c.APIFormat = dialect
	return nil
}
