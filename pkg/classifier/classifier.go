// Package classifier asks a text-generation API whether a title breaks any
// of the configured rules.
package classifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dtnitsch/llm-feed-filter/models"
	"github.com/dtnitsch/llm-feed-filter/pkg/prompt"
	"github.com/go-resty/resty/v2"
)

// Result is the interpreted outcome of one request.
type Result struct {
	Verdict models.Verdict
	// Answer is the trimmed answer text.
	Answer string
}

// StatusError is returned when the API answers with a status other than 200.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("classification request failed, status: %s", e.Status)
}

// Client sends classification requests. It is safe for concurrent use.
type Client struct {
	client  *resty.Client
	rules   string
	model   string
	apiURL  string
	apiKey  string
	dialect models.Dialect
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient makes the Client send requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = resty.NewWithClient(hc)
	}
}

// New returns a Client for cfg. Requests are never retried and carry no
// timeout of their own; cancel the context passed to Classify instead.
func New(cfg *models.FilterConfig, opts ...Option) *Client {
	c := &Client{
		client:  resty.New(),
		rules:   cfg.Rules,
		model:   cfg.Model,
		apiURL:  cfg.APIURL,
		apiKey:  cfg.APIKey,
		dialect: cfg.APIFormat,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client.SetRetryCount(0)
	return c
}

// Classify sends title to the API and interprets the answer. Transport
// failures, non-200 responses and malformed bodies are all returned as errors.
func (c *Client) Classify(ctx context.Context, title string) (Result, error) {
	body, err := prompt.Build(c.model, title, c.rules, c.dialect)
	if err != nil {
		return Result{}, err
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := req.Post(c.apiURL)
	if err != nil {
		return Result{}, fmt.Errorf("failed to send classification request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Result{}, &StatusError{Code: resp.StatusCode(), Status: resp.Status(), Body: resp.String()}
	}

	answer, err := prompt.ParseAnswer(resp.Body(), c.dialect)
	if err != nil {
		return Result{}, err
	}
	answer = strings.TrimSpace(answer)
	return Result{Verdict: Interpret(answer), Answer: answer}, nil
}

// Interpret maps a trimmed answer to a verdict. Only the exact strings
// "True" and "False" are understood.
func Interpret(answer string) models.Verdict {
	switch answer {
	case "True":
		return models.VerdictViolates
	case "False":
		return models.VerdictCompliant
	default:
		return models.VerdictUnintelligible
	}
}
