package prompt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dtnitsch/llm-feed-filter/models"
)

func TestBuild_Ollama(t *testing.T) {
	body, err := Build("qwen3:8b", "X", "R", models.DialectOllama)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["stream"] != false {
		t.Errorf("stream = %v, want false", got["stream"])
	}
	if got["think"] != false {
		t.Errorf("think = %v, want false", got["think"])
	}
	options, ok := got["options"].(map[string]any)
	if !ok || options["temperature"] != float64(0) {
		t.Errorf("options = %v, want temperature 0", got["options"])
	}
	if got["model"] != "qwen3:8b" {
		t.Errorf("model = %v, want qwen3:8b", got["model"])
	}
	p, _ := got["prompt"].(string)
	if !strings.Contains(p, "X") || !strings.Contains(p, "R") {
		t.Errorf("prompt %q does not contain title and rules", p)
	}
	if _, exists := got["messages"]; exists {
		t.Error("ollama payload carries messages")
	}
}

func TestBuild_OpenAI(t *testing.T) {
	body, err := Build("gpt", "X", "R", models.DialectOpenAI)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var got struct {
		Stream   *bool `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ExtraBody struct {
			EnableThinking *bool `json:"enable_thinking"`
		} `json:"extra_body"`
		Temperature *float64 `json:"temperature"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(got.Messages))
	}
	if got.Messages[0].Role != "user" {
		t.Errorf("role = %q, want user", got.Messages[0].Role)
	}
	if c := got.Messages[0].Content; !strings.Contains(c, "X") || !strings.Contains(c, "R") {
		t.Errorf("content %q does not contain title and rules", c)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", got.Temperature)
	}
	if got.ExtraBody.EnableThinking == nil || *got.ExtraBody.EnableThinking {
		t.Error("extra_body.enable_thinking missing or true")
	}
	if got.Stream == nil || *got.Stream {
		t.Error("stream missing or true")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	for _, d := range models.Dialects {
		a, err := Build("m", "title", "rule one\nrule two", d)
		if err != nil {
			t.Fatalf("Build(%s) error = %v", d, err)
		}
		b, _ := Build("m", "title", "rule one\nrule two", d)
		if !bytes.Equal(a, b) {
			t.Errorf("Build(%s) is not byte-stable:\n%s\n%s", d, a, b)
		}
	}
}

func TestBuild_UnknownDialect(t *testing.T) {
	if _, err := Build("m", "t", "r", models.Dialect("soap")); err == nil {
		t.Error("Build() with unknown dialect error = nil")
	}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		dialect models.Dialect
		body    string
		want    string
		wantErr bool
	}{
		{"ollama", models.DialectOllama, `{"response":" True\n","done":true}`, " True\n", false},
		{"ollama missing field", models.DialectOllama, `{"done":true}`, "", true},
		{"ollama not json", models.DialectOllama, `<html>`, "", true},
		{"openai", models.DialectOpenAI, `{"choices":[{"message":{"role":"assistant","content":"False"}},{"message":{"content":"True"}}]}`, "False", false},
		{"openai no choices", models.DialectOpenAI, `{"choices":[]}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer([]byte(tt.body), tt.dialect)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAnswer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAnswer() = %q, want %q", got, tt.want)
			}
		})
	}
}
