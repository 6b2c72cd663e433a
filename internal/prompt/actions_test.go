package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dtnitsch/llm-feed-filter/models"
)

func TestWritePayload(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Rules = "no clickbait"
	cfg.APIFormat = models.DialectOpenAI

	var raw, pretty bytes.Buffer
	if err := WritePayload(&raw, cfg, "You won't believe this", true); err != nil {
		t.Fatalf("WritePayload(raw) error = %v", err)
	}
	if err := WritePayload(&pretty, cfg, "You won't believe this", false); err != nil {
		t.Fatalf("WritePayload(pretty) error = %v", err)
	}

	if strings.Count(strings.TrimSpace(raw.String()), "\n") != 0 {
		t.Errorf("raw payload spans lines: %s", raw.String())
	}
	for _, want := range []string{`"role": "user"`, "no clickbait", `"temperature": 0`} {
		if !strings.Contains(pretty.String(), want) {
			t.Errorf("payload missing %q:\n%s", want, pretty.String())
		}
	}
}
