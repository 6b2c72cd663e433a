// Package prompt builds classification requests and reads the answers back
// for every supported API dialect.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dtnitsch/llm-feed-filter/models"
)

// Instruction asks whether title matches any of rules and demands a bare
// True or False. rules are passed through verbatim.
func Instruction(title, rules string) string {
	return fmt.Sprintf("%s\nDecide whether the video title above matches any one of the following rules. "+
		"Output only True or False and nothing else.\n%s", title, rules)
}

type codec struct {
	build func(model, prompt string) any
	parse func(body []byte) (string, error)
}

var codecs = map[models.Dialect]codec{
	models.DialectOllama: {build: buildOllama, parse: parseOllama},
	models.DialectOpenAI: {build: buildOpenAI, parse: parseOpenAI},
}

func lookup(d models.Dialect) (codec, error) {
	c, ok := codecs[d]
	if !ok {
		return codec{}, fmt.Errorf("unsupported dialect %q", d)
	}
	return c, nil
}

// Build returns the JSON request body for title under dialect d.
// Identical inputs always produce identical bytes.
func Build(model, title, rules string, d models.Dialect) ([]byte, error) {
	c, err := lookup(d)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(c.build(model, Instruction(title, rules)))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", d, err)
	}
	return body, nil
}

// ParseAnswer extracts the untrimmed answer text from a response body.
func ParseAnswer(body []byte, d models.Dialect) (string, error) {
	c, err := lookup(d)
	if err != nil {
		return "", err
	}
	return c.parse(body)
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Stream  bool          `json:"stream"`
	Prompt  string        `json:"prompt"`
	Think   bool          `json:"think"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response *string `json:"response"`
}

func buildOllama(model, prompt string) any {
	return ollamaRequest{
		Model:   model,
		Stream:  false,
		Prompt:  prompt,
		Think:   false,
		Options: ollamaOptions{Temperature: 0},
	}
}

func parseOllama(body []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if resp.Response == nil {
		return "", errors.New("ollama response has no response field")
	}
	return *resp.Response, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIExtraBody struct {
	EnableThinking bool `json:"enable_thinking"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Stream      bool            `json:"stream"`
	Messages    []chatMessage   `json:"messages"`
	ExtraBody   openAIExtraBody `json:"extra_body"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func buildOpenAI(model, prompt string) any {
	return openAIRequest{
		Model:       model,
		Stream:      false,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		ExtraBody:   openAIExtraBody{EnableThinking: false},
		Temperature: 0,
	}
}

func parseOpenAI(body []byte) (string, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
