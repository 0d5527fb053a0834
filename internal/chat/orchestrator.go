package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chatpdfy/chatpdfy/internal/archive"
	"github.com/chatpdfy/chatpdfy/internal/conversation"
	"github.com/chatpdfy/chatpdfy/internal/gemini"
	"github.com/chatpdfy/chatpdfy/internal/observability"
	"github.com/chatpdfy/chatpdfy/internal/pdf"
)

// State is the single-flight request state. A send is only admitted in
// StateIdle; a second send while a reply is outstanding is rejected, not
// queued.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaiting-reply"
)

var (
	// ErrEmptyMessage rejects a send whose text trims to nothing.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrBusy rejects a send while a previous reply is outstanding.
	ErrBusy = errors.New("a reply is already in flight")
)

const archiveTimeout = 2 * time.Second

// Orchestrator owns the conversation lifecycle: it is the only component that
// mutates the log, the pending context buffer and the request state.
type Orchestrator struct {
	mu    sync.Mutex
	state State

	log       *conversation.Log
	pending   *conversation.PendingContext
	client    gemini.Client
	extractor *pdf.Extractor
	sink      archive.Sink
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func NewOrchestrator(
	log *conversation.Log,
	pending *conversation.PendingContext,
	client gemini.Client,
	extractor *pdf.Extractor,
	sink archive.Sink,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		state:     StateIdle,
		log:       log,
		pending:   pending,
		client:    client,
		extractor: extractor,
		sink:      sink,
		metrics:   metrics,
		logger:    logger,
	}
}

// State reports the current request state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Send appends the user turn, consumes any pending document corpus, calls the
// completion capability and appends the reply. A remote failure still yields
// a normal assistant turn carrying a readable message, so the log always
// stays a complete linear record. Precondition violations (blank text, a
// reply already in flight) reject the call before any state changes.
func (o *Orchestrator) Send(ctx context.Context, userText string) (conversation.Turn, error) {
	trimmed := strings.TrimSpace(userText)
	if trimmed == "" {
		o.metrics.RejectedSends.WithLabelValues("empty").Inc()
		return conversation.Turn{}, ErrEmptyMessage
	}

	o.mu.Lock()
	if o.state == StateAwaitingReply {
		o.mu.Unlock()
		o.metrics.RejectedSends.WithLabelValues("busy").Inc()
		return conversation.Turn{}, ErrBusy
	}
	userTurn := o.log.Append(conversation.Turn{
		Role:    conversation.RoleUser,
		Kind:    conversation.KindText,
		Content: trimmed,
	})
	corpus := o.pending.Drain()
	payload := BuildPayload(o.log.Snapshot(), corpus)
	o.state = StateAwaitingReply
	o.mu.Unlock()

	o.record(userTurn)
	o.metrics.PendingContext.Set(0)
	o.metrics.ConversationTurns.Set(float64(o.log.Len()))

	// The remote call runs outside the lock: Clear must never block on an
	// in-flight request.
	start := time.Now()
	reply, err := o.client.Generate(ctx, payload)
	o.metrics.ObserveCompletionLatency(time.Since(start))

	content := reply
	outcome := "success"
	if err != nil {
		o.logger.Warn("completion failed", "error", err)
		content = gemini.UserMessage(err)
		outcome = "failure"
	}

	o.mu.Lock()
	assistantTurn := o.log.Append(conversation.Turn{
		Role:    conversation.RoleAssistant,
		Kind:    conversation.KindText,
		Content: content,
	})
	o.state = StateIdle
	o.mu.Unlock()

	o.record(assistantTurn)
	o.metrics.Sends.WithLabelValues(outcome).Inc()
	o.metrics.ConversationTurns.Set(float64(o.log.Len()))
	return assistantTurn, nil
}

// Attach extracts the uploaded files, appends one file-summary turn per
// parsed file in upload order, and overwrites the pending context buffer with
// the batch corpus. The corpus is held for the next send only; an upload
// during an in-flight send is never attached retroactively.
func (o *Orchestrator) Attach(ctx context.Context, files []pdf.File) (pdf.Result, error) {
	if len(files) == 0 {
		return pdf.Result{}, nil
	}

	start := time.Now()
	res, err := o.extractor.ExtractBatch(ctx, files)
	if err != nil {
		return pdf.Result{}, err
	}
	o.metrics.ObserveExtractionLatency(time.Since(start))

	for i, summary := range res.Summaries {
		stored := o.log.Append(summary)
		res.Summaries[i] = stored
		o.record(stored)
	}
	o.pending.Set(res.Corpus)

	o.metrics.ExtractedFiles.WithLabelValues("success").Add(float64(len(res.Summaries)))
	o.metrics.ExtractedFiles.WithLabelValues("failure").Add(float64(len(res.Failures)))
	o.metrics.ConversationTurns.Set(float64(o.log.Len()))
	if res.Corpus != "" {
		o.metrics.PendingContext.Set(1)
	} else {
		o.metrics.PendingContext.Set(0)
	}
	return res, nil
}

// Clear empties the log, discards any pending corpus and resets the request
// state. Clearing while a reply is in flight is a user override, not an
// error: the late reply is still appended when it arrives, since the send
// already left the orchestrator. That race is accepted and documented.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.log.Clear()
	o.pending.Drain()
	o.state = StateIdle
	o.mu.Unlock()

	o.metrics.ConversationTurns.Set(0)
	o.metrics.PendingContext.Set(0)
}

func (o *Orchestrator) record(turn conversation.Turn) {
	if o.sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := o.sink.Record(ctx, turn); err != nil {
			o.logger.Warn("transcript archive write failed", "turn_id", turn.ID, "error", err)
		}
	}()
}
