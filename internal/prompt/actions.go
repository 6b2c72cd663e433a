package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dtnitsch/llm-feed-filter/internal/common"
	"github.com/dtnitsch/llm-feed-filter/models"
	"github.com/dtnitsch/llm-feed-filter/pkg/prompt"
	"github.com/urfave/cli/v2"
)

// PromptAction prints the request body that would be sent for --title.
func PromptAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"), c.Bool("verbose"))

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return cli.Exit("", 2)
	}
	if err := WritePayload(os.Stdout, cfg, c.String("title"), c.Bool("raw")); err != nil {
		logger.Error("failed to build payload", "error", err)
		return cli.Exit("", 2)
	}
	return nil
}

// WritePayload writes the request body for title, indented unless raw.
func WritePayload(w io.Writer, cfg *models.FilterConfig, title string, raw bool) error {
	body, err := prompt.Build(cfg.Model, title, cfg.Rules, cfg.APIFormat)
	if err != nil {
		return err
	}
	if !raw {
		var out bytes.Buffer
		if err := json.Indent(&out, body, "", "  "); err != nil {
			return fmt.Errorf("failed to indent payload: %w", err)
		}
		body = out.Bytes()
	}
	_, err = fmt.Fprintf(w, "%s\n", body)
	return err
}
