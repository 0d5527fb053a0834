package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Sends             *prometheus.CounterVec
	RejectedSends     *prometheus.CounterVec
	ExtractedFiles    *prometheus.CounterVec
	ConversationTurns prometheus.Gauge
	PendingContext    prometheus.Gauge
	WSClients         prometheus.Gauge
	CompletionLatency prometheus.Histogram

	latency *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Sends: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Completed sends by outcome.",
		}, []string{"outcome"}),
		RejectedSends: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_sends_total",
			Help:      "Sends rejected before any state change, by reason.",
		}, []string{"reason"}),
		ExtractedFiles: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extracted_files_total",
			Help:      "Uploaded PDF files by extraction outcome.",
		}, []string{"outcome"}),
		ConversationTurns: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversation_turns",
			Help:      "Number of turns currently in the conversation log.",
		}),
		PendingContext: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_context",
			Help:      "1 when an extracted corpus is awaiting the next send.",
		}),
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket turn feed clients.",
		}),
		CompletionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Remote completion call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
		latency: newLatencyWindow(256),
	}
}

func (m *Metrics) ObserveCompletionLatency(d time.Duration) {
	ms := float64(d.Milliseconds())
	m.CompletionLatency.Observe(ms)
	m.latency.Observe(StageCompletion, ms)
}

func (m *Metrics) ObserveExtractionLatency(d time.Duration) {
	m.latency.Observe(StageExtraction, float64(d.Milliseconds()))
}

// SnapshotLatency reports rolling-window latency stats for the perf endpoint.
func (m *Metrics) SnapshotLatency() LatencySnapshot {
	return m.latency.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
