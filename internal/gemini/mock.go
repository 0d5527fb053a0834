package gemini

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no API key is
// configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Generate(ctx context.Context, contents []Content) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	last := ""
	if len(contents) > 0 {
		parts := contents[len(contents)-1].Parts
		if len(parts) > 0 {
			last = strings.TrimSpace(parts[0].Text)
		}
	}
	if last == "" {
		return "I am listening.", nil
	}
	if idx := strings.Index(last, "\n\n---\nPDF Content:\n"); idx >= 0 {
		return fmt.Sprintf("I read your documents. You asked: %s", strings.TrimSpace(last[:idx])), nil
	}
	return fmt.Sprintf("You said: %s", last), nil
}
