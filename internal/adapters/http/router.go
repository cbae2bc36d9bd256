package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yz181x/dify/internal/adapters/observer"
	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/core/ports"
	"github.com/yz181x/dify/internal/observability/metrics"
)

type Router struct {
	retriever ports.ContextRetriever
	metrics   *metrics.RetrievalMetrics

	cfg RouterConfig
}

type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueWait      time.Duration
}

func NewRouter(retriever ports.ContextRetriever, m *metrics.RetrievalMetrics, cfg RouterConfig) *Router {
	if cfg.QueueWait <= 0 {
		cfg.QueueWait = 100 * time.Millisecond
	}
	return &Router{
		retriever: retriever,
		metrics:   m,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieval", rt.retrieve)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.QueueWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retrievalResponse struct {
	Context   string                       `json:"context"`
	Resources []domain.ResourceAttribution `json:"resources,omitempty"`
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.RetrievalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	origin := req.RetrieverOrigin
	if origin == "" {
		origin = "api"
	}

	collector := observer.NewResourceCollector()
	contextText, err := rt.retriever.Retrieve(r.Context(), req, collector)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		if rt.metrics != nil {
			rt.metrics.ObserveRequest(origin, "error", time.Since(start))
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.ObserveRequest(origin, "ok", time.Since(start))
	}
	writeJSON(w, http.StatusOK, retrievalResponse{
		Context:   contextText,
		Resources: collector.Attributions(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
