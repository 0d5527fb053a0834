// Package archive provides a write-only audit trail of conversation turns.
// Turns recorded here are never read back into the conversation; the
// in-memory log stays the sole source of truth for what is rendered and sent.
package archive

import (
	"context"
	"strings"

	"github.com/chatpdfy/chatpdfy/internal/conversation"
)

// Sink records appended turns.
type Sink interface {
	Record(ctx context.Context, turn conversation.Turn) error
	Close() error
}

// NewSink creates a postgres-backed sink when configured, otherwise a no-op.
func NewSink(ctx context.Context, databaseURL string) (Sink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NoopSink{}, nil
	}
	return NewPostgresSink(ctx, databaseURL)
}

// NoopSink discards every turn. Used when no DATABASE_URL is set.
type NoopSink struct{}

func (NoopSink) Record(context.Context, conversation.Turn) error { return nil }
func (NoopSink) Close() error                                    { return nil }
