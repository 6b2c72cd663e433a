package models

import (
	"fmt"
	"strings"
)

// Dialect selects the request/response shape of the classification API.
type Dialect string

const (
	// DialectOllama is the Ollama /api/generate shape.
	DialectOllama Dialect = "ollama"
	// DialectOpenAI is the OpenAI-compatible /chat/completions shape.
	DialectOpenAI Dialect = "openai"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{DialectOllama, DialectOpenAI}

// ParseDialect resolves a config value to a Dialect.
// Empty input resolves to DialectOllama.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ollama":
		return DialectOllama, nil
	case "openai", "openai-compatible", "openai compatible", "openai 兼容":
		return DialectOpenAI, nil
	}
	return "", fmt.Errorf("unknown api format %q (want one of: ollama, openai)", s)
}
