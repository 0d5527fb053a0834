package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/chatpdfy/chatpdfy/internal/chat"
	"github.com/chatpdfy/chatpdfy/internal/config"
	"github.com/chatpdfy/chatpdfy/internal/conversation"
	"github.com/chatpdfy/chatpdfy/internal/observability"
	"github.com/chatpdfy/chatpdfy/internal/pdf"
)

type Server struct {
	cfg          config.Config
	orchestrator *chat.Orchestrator
	log          *conversation.Log
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, orchestrator *chat.Orchestrator, log *conversation.Log, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		log:          log,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. Non-browser clients
				// often omit Origin; allow them.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/messages", s.handleSendMessage)
	r.Post("/v1/chat/files", s.handleUploadFiles)
	r.Get("/v1/chat/turns", s.handleListTurns)
	r.Get("/v1/chat/state", s.handleState)
	r.Post("/v1/chat/clear", s.handleClear)
	r.Get("/v1/chat/ws", s.handleTurnFeed)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	reply, err := s.orchestrator.Send(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "empty_message", "message text must not be blank")
		return
	case errors.Is(err, chat.ErrBusy):
		respondError(w, http.StatusConflict, "reply_in_flight", "a reply is already in flight")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "send_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"turn": reply})
}

type uploadResponse struct {
	Summaries []conversation.Turn `json:"summaries"`
	Failures  []uploadFailure     `json:"failures,omitempty"`
}

type uploadFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	reader, err := r.MultipartReader()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_multipart", err.Error())
		return
	}

	var files []pdf.File
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_multipart", err.Error())
			return
		}
		if part.FileName() == "" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			respondError(w, http.StatusRequestEntityTooLarge, "upload_too_large", err.Error())
			return
		}
		files = append(files, pdf.File{Name: part.FileName(), Data: data})
	}

	res, err := s.orchestrator.Attach(r.Context(), files)
	if errors.Is(err, pdf.ErrNoSource) {
		respondError(w, http.StatusServiceUnavailable, "extractor_unavailable", "pdf extraction is not available")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "extraction_failed", err.Error())
		return
	}

	out := uploadResponse{Summaries: res.Summaries}
	if out.Summaries == nil {
		out.Summaries = []conversation.Turn{}
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, uploadFailure{Name: f.Name, Reason: f.Err.Error()})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTurns(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"turns": s.log.Snapshot()})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"state": s.orchestrator.State()})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.orchestrator.Clear()
	respondJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.SnapshotLatency())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
