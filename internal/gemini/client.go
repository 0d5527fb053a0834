package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Part is one text fragment of a content entry.
type Part struct {
	Text string `json:"text"`
}

// Content is one role-tagged entry of the outgoing request. Roles are "user"
// and "model"; assistant and system turns both map to "model".
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Client produces one completion for an ordered list of contents. No
// streaming and no retries; the orchestrator converts failures into
// user-visible assistant turns.
type Client interface {
	Generate(ctx context.Context, contents []Content) (string, error)
}

// Config controls client construction.
type Config struct {
	Mode    string
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewClient builds a completion client for the configured mode. Mode "auto"
// uses the real API when a key is present and falls back to the mock
// otherwise, so the service stays usable for local development.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return NewMockClient(), nil
		}
		return NewHTTPClient(cfg), nil
	case "http":
		return NewHTTPClient(cfg), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported gemini client mode %q", cfg.Mode)
	}
}
