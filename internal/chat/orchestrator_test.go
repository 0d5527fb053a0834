package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chatpdfy/chatpdfy/internal/conversation"
	"github.com/chatpdfy/chatpdfy/internal/gemini"
	"github.com/chatpdfy/chatpdfy/internal/observability"
	"github.com/chatpdfy/chatpdfy/internal/pdf"
)

var metricsSeq atomic.Int64

func testMetrics() *observability.Metrics {
	return observability.NewMetrics(fmt.Sprintf("chatpdfy_test_%d_%d", time.Now().UnixNano(), metricsSeq.Add(1)))
}

type stubClient struct {
	fn func(ctx context.Context, contents []gemini.Content) (string, error)
}

func (c *stubClient) Generate(ctx context.Context, contents []gemini.Content) (string, error) {
	return c.fn(ctx, contents)
}

type gatedClient struct {
	started chan struct{}
	release chan struct{}
	reply   string
}

func (c *gatedClient) Generate(ctx context.Context, contents []gemini.Content) (string, error) {
	close(c.started)
	<-c.release
	return c.reply, nil
}

type stubDocument struct {
	pages [][]string
}

func (d *stubDocument) PageCount() int                      { return len(d.pages) }
func (d *stubDocument) PageText(page int) ([]string, error) { return d.pages[page-1], nil }

type stubSource struct {
	doc pdf.Document
	err error
}

func (s *stubSource) Open([]byte) (pdf.Document, error) { return s.doc, s.err }

func newTestOrchestrator(client gemini.Client, source pdf.PageSource) (*Orchestrator, *conversation.Log, *conversation.PendingContext) {
	log := conversation.NewLog()
	pending := conversation.NewPendingContext()
	o := NewOrchestrator(log, pending, client, pdf.NewExtractor(source, nil), nil, testMetrics(), nil)
	return o, log, pending
}

func TestSendBlankInputIsRejected(t *testing.T) {
	o, log, _ := newTestOrchestrator(&stubClient{fn: func(context.Context, []gemini.Content) (string, error) {
		t.Error("client must not be called")
		return "", nil
	}}, nil)

	_, err := o.Send(context.Background(), "   \n\t ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("error = %v, want ErrEmptyMessage", err)
	}
	if log.Len() != 0 {
		t.Fatalf("log len = %d, want 0", log.Len())
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %q, want idle", o.State())
	}
}

func TestSendWhileAwaitingIsRejected(t *testing.T) {
	client := &gatedClient{started: make(chan struct{}), release: make(chan struct{}), reply: "done"}
	o, log, _ := newTestOrchestrator(client, nil)

	go func() {
		_, _ = o.Send(context.Background(), "first")
	}()
	<-client.started

	lenBefore := log.Len()
	_, err := o.Send(context.Background(), "second")
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("error = %v, want ErrBusy", err)
	}
	if log.Len() != lenBefore {
		t.Fatalf("log len changed by rejected send: %d -> %d", lenBefore, log.Len())
	}

	close(client.release)
}

func TestSendSuccessAppendsBothTurns(t *testing.T) {
	o, log, pending := newTestOrchestrator(&stubClient{fn: func(context.Context, []gemini.Content) (string, error) {
		return "Hi there", nil
	}}, nil)

	reply, err := o.Send(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Send error = %v", err)
	}
	if reply.Role != conversation.RoleAssistant || reply.Content != "Hi there" {
		t.Fatalf("reply turn = %+v", reply)
	}

	snap := log.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("log len = %d, want 2", len(snap))
	}
	if snap[0].Role != conversation.RoleUser || snap[0].Content != "Hello" {
		t.Fatalf("first turn = %+v", snap[0])
	}
	if snap[1].Role != conversation.RoleAssistant || snap[1].Content != "Hi there" {
		t.Fatalf("second turn = %+v", snap[1])
	}
	if !pending.Empty() {
		t.Fatalf("buffer not empty after send")
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %q, want idle", o.State())
	}
}

func TestSendStatusErrorBecomesAssistantTurn(t *testing.T) {
	o, log, _ := newTestOrchestrator(&stubClient{fn: func(context.Context, []gemini.Content) (string, error) {
		return "", &gemini.StatusError{Code: 500}
	}}, nil)

	reply, err := o.Send(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Send error = %v, remote failures must not surface", err)
	}
	if reply.Content != "API request failed with status 500" {
		t.Fatalf("reply content = %q", reply.Content)
	}
	if log.Len() != 2 {
		t.Fatalf("log len = %d, want 2", log.Len())
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %q, want idle after failure", o.State())
	}
}

func TestSendTransportErrorBecomesAssistantTurn(t *testing.T) {
	o, _, _ := newTestOrchestrator(&stubClient{fn: func(context.Context, []gemini.Content) (string, error) {
		return "", errors.New("connection reset")
	}}, nil)

	reply, err := o.Send(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Send error = %v", err)
	}
	if reply.Content != "Oops! Something went wrong while getting the answer." {
		t.Fatalf("reply content = %q", reply.Content)
	}
}

func TestSendConsumesCorpusExactlyOnce(t *testing.T) {
	var payloads [][]gemini.Content
	o, _, pending := newTestOrchestrator(&stubClient{fn: func(_ context.Context, contents []gemini.Content) (string, error) {
		payloads = append(payloads, contents)
		return "ok", nil
	}}, nil)

	pending.Set("the corpus")

	if _, err := o.Send(context.Background(), "first"); err != nil {
		t.Fatalf("first Send error = %v", err)
	}
	if _, err := o.Send(context.Background(), "second"); err != nil {
		t.Fatalf("second Send error = %v", err)
	}

	first := payloads[0]
	wantSuffix := ContextSuffixMarker + "the corpus"
	if got := first[len(first)-1].Parts[0].Text; !strings.HasSuffix(got, wantSuffix) {
		t.Fatalf("first payload last text = %q, want suffix %q", got, wantSuffix)
	}
	second := payloads[1]
	for i, c := range second {
		if strings.Contains(c.Parts[0].Text, "PDF Content:") {
			t.Fatalf("second payload element %d still carries corpus: %q", i, c.Parts[0].Text)
		}
	}
	if !pending.Empty() {
		t.Fatalf("buffer not empty after sends")
	}
}

func TestSendDrainsBufferEvenOnFailure(t *testing.T) {
	o, _, pending := newTestOrchestrator(&stubClient{fn: func(context.Context, []gemini.Content) (string, error) {
		return "", &gemini.StatusError{Code: 503}
	}}, nil)

	pending.Set("corpus")
	if _, err := o.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send error = %v", err)
	}
	if !pending.Empty() {
		t.Fatalf("buffer must be empty after a failed send")
	}
}

func TestSendExcludesFileSummaryTurnsFromPayload(t *testing.T) {
	var got []gemini.Content
	client := &stubClient{fn: func(_ context.Context, contents []gemini.Content) (string, error) {
		got = contents
		return "ok", nil
	}}
	source := &stubSource{doc: &stubDocument{pages: [][]string{{"alpha"}, {"beta"}}}}
	o, _, _ := newTestOrchestrator(client, source)

	if _, err := o.Attach(context.Background(), []pdf.File{{Name: "doc.pdf", Data: bytes.Repeat([]byte("x"), 10240)}}); err != nil {
		t.Fatalf("Attach error = %v", err)
	}
	if _, err := o.Send(context.Background(), "Summarize"); err != nil {
		t.Fatalf("Send error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("payload len = %d, want 1 (summary turn excluded)", len(got))
	}
	text := got[0].Parts[0].Text
	if !strings.Contains(text, "Summarize") {
		t.Fatalf("payload text missing question: %q", text)
	}
	if !strings.Contains(text, "--- PDF: doc.pdf ---") || !strings.Contains(text, "alpha") {
		t.Fatalf("payload text missing corpus block: %q", text)
	}
}

func TestAttachAppendsSummaryAndFillsBuffer(t *testing.T) {
	source := &stubSource{doc: &stubDocument{pages: [][]string{{"page", "one"}, {"page", "two"}}}}
	o, log, pending := newTestOrchestrator(&stubClient{fn: func(context.Context, []gemini.Content) (string, error) {
		return "ok", nil
	}}, source)

	res, err := o.Attach(context.Background(), []pdf.File{{Name: "doc.pdf", Data: bytes.Repeat([]byte("x"), 10240)}})
	if err != nil {
		t.Fatalf("Attach error = %v", err)
	}
	if len(res.Summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(res.Summaries))
	}

	snap := log.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("log len = %d, want 1", len(snap))
	}
	meta := snap[0].FileMeta
	if meta == nil {
		t.Fatalf("summary turn has no file meta")
	}
	if meta.Name != "doc.pdf" || meta.SizeLabel != "10.0 KB" || meta.PageCount != 2 {
		t.Fatalf("file meta = %+v, want doc.pdf / 10.0 KB / 2 pages", meta)
	}
	if pending.Empty() {
		t.Fatalf("buffer empty after extraction")
	}
}

func TestAttachZeroFilesIsNoOp(t *testing.T) {
	o, log, pending := newTestOrchestrator(nil, nil)
	pending.Set("keep me")

	res, err := o.Attach(context.Background(), nil)
	if err != nil {
		t.Fatalf("Attach error = %v", err)
	}
	if len(res.Summaries) != 0 || log.Len() != 0 {
		t.Fatalf("zero-file batch changed state: %+v, log len %d", res, log.Len())
	}
	if pending.Empty() {
		t.Fatalf("zero-file batch must not touch the buffer")
	}
}

func TestAttachWithoutSourceFailsWholeBatch(t *testing.T) {
	o, log, pending := newTestOrchestrator(nil, nil)

	_, err := o.Attach(context.Background(), []pdf.File{{Name: "a.pdf", Data: []byte("a")}})
	if !errors.Is(err, pdf.ErrNoSource) {
		t.Fatalf("error = %v, want ErrNoSource", err)
	}
	if log.Len() != 0 {
		t.Fatalf("log len = %d, want 0 on batch precondition failure", log.Len())
	}
	if !pending.Empty() {
		t.Fatalf("buffer written on batch precondition failure")
	}
}

func TestClearResetsEverything(t *testing.T) {
	o, log, pending := newTestOrchestrator(&stubClient{fn: func(context.Context, []gemini.Content) (string, error) {
		return "ok", nil
	}}, nil)

	if _, err := o.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send error = %v", err)
	}
	pending.Set("corpus")

	o.Clear()
	if log.Len() != 0 {
		t.Fatalf("log len = %d, want 0", log.Len())
	}
	if !pending.Empty() {
		t.Fatalf("buffer not empty after Clear")
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %q, want idle", o.State())
	}
}

func TestClearMidFlightDoesNotResurrectUserTurn(t *testing.T) {
	client := &gatedClient{started: make(chan struct{}), release: make(chan struct{}), reply: "late reply"}
	o, log, _ := newTestOrchestrator(client, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.Send(context.Background(), "question")
	}()
	<-client.started

	o.Clear()
	if log.Len() != 0 {
		t.Fatalf("log len = %d immediately after Clear, want 0", log.Len())
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %q after Clear, want idle", o.State())
	}

	close(client.release)
	<-done

	// The late reply is still appended; the cleared user turn stays gone.
	snap := log.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("log len = %d after late reply, want 1", len(snap))
	}
	if snap[0].Role != conversation.RoleAssistant || snap[0].Content != "late reply" {
		t.Fatalf("late turn = %+v", snap[0])
	}
}
