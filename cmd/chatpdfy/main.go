package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatpdfy/chatpdfy/internal/archive"
	"github.com/chatpdfy/chatpdfy/internal/chat"
	"github.com/chatpdfy/chatpdfy/internal/config"
	"github.com/chatpdfy/chatpdfy/internal/conversation"
	"github.com/chatpdfy/chatpdfy/internal/gemini"
	"github.com/chatpdfy/chatpdfy/internal/httpapi"
	"github.com/chatpdfy/chatpdfy/internal/observability"
	"github.com/chatpdfy/chatpdfy/internal/pdf"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	sink, err := archive.NewSink(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("transcript archive init failed: %v", err)
	}
	defer sink.Close()

	client, err := gemini.NewClient(gemini.Config{
		Mode:    cfg.GeminiClientMode,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GeminiTimeout,
	})
	if err != nil {
		log.Fatalf("gemini client init failed: %v", err)
	}
	if cfg.GeminiAPIKey == "" && cfg.GeminiClientMode != "mock" {
		log.Printf("GEMINI_API_KEY not set; using mock completion client")
	}

	convLog := conversation.NewLog()
	pending := conversation.NewPendingContext()
	extractor := pdf.NewExtractor(pdf.NewPDFCPUSource(), nil)
	orchestrator := chat.NewOrchestrator(convLog, pending, client, extractor, sink, metrics, nil)

	api := httpapi.New(cfg, orchestrator, convLog, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
