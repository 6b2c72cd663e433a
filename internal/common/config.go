package common

import (
	"fmt"

	"github.com/dtnitsch/llm-feed-filter/models"
	"github.com/urfave/cli/v2"
)

// LoadConfig loads the filter config named by the global flags and applies
// flag overrides on top of the file and environment.
func LoadConfig(c *cli.Context) (*models.FilterConfig, error) {
	cfg, err := models.LoadConfig(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("model") {
		cfg.Model = c.String("model")
	}
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("api-format") {
		cfg.APIFormat = models.Dialect(c.String("api-format"))
	}
	if c.IsSet("rules") {
		cfg.Rules = c.String("rules")
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	apiURL, err := ValidateURL(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid apiUrl: %w", err)
	}
	cfg.APIURL = apiURL
	return cfg, nil
}
