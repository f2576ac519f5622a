// Package httpadapter exposes the classification engine over HTTP:
// classify, retrieve, and enrichment-job submission, behind request-ID,
// access-log, rate-limit and backpressure middleware.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
	"github.com/whisperengine-ai/whisperengine/internal/observability/metrics"
)

type Router struct {
	classifier ports.QueryClassifier
	retriever  ports.MemoryRetriever
	queue      ports.MessageQueue
	metrics    *metrics.HTTPMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	queueWait      time.Duration
}

type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueWait      time.Duration
}

func NewRouter(
	classifier ports.QueryClassifier,
	retriever ports.MemoryRetriever,
	queue ports.MessageQueue,
	httpMetrics *metrics.HTTPMetrics,
	options RouterOptions,
) *Router {
	if options.RateLimitRPS <= 0 {
		options.RateLimitRPS = 50
	}
	if options.RateLimitBurst <= 0 {
		options.RateLimitBurst = 100
	}
	if options.MaxInFlight <= 0 {
		options.MaxInFlight = 64
	}
	if options.QueueWait <= 0 {
		options.QueueWait = 100 * time.Millisecond
	}
	return &Router{
		classifier:     classifier,
		retriever:      retriever,
		queue:          queue,
		metrics:        httpMetrics,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxInFlight:    options.MaxInFlight,
		queueWait:      options.QueueWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/v1/classify", rt.classify)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/enrich", rt.enqueueEnrichment)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.queueWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	handler = accessLogMiddleware(handler, rt.metrics)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type classifyRequest struct {
	Query         string              `json:"query"`
	UserID        string              `json:"user_id"`
	CharacterName string              `json:"character_name,omitempty"`
	Emotion       *domain.EmotionData `json:"emotion,omitempty"`
}

func decodeClassifyRequest(r *http.Request) (classifyRequest, string) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, "invalid json"
	}
	if strings.TrimSpace(req.Query) == "" {
		return req, "query is required"
	}
	if strings.TrimSpace(req.UserID) == "" {
		return req, "user_id is required"
	}
	return req, ""
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, problem := decodeClassifyRequest(r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	start := time.Now()
	result := rt.classifier.Classify(r.Context(), req.Query, req.Emotion, req.UserID, req.CharacterName)
	if rt.metrics != nil {
		rt.metrics.ObserveClassification(string(result.IntentType), time.Since(start))
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, problem := decodeClassifyRequest(r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	start := time.Now()
	envelope, err := rt.retriever.Retrieve(r.Context(), req.Query, req.Emotion, req.UserID, req.CharacterName)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.ObserveClassification(string(envelope.Classification.IntentType), time.Since(start))
	}

	writeJSON(w, http.StatusOK, envelope)
}

// enqueueEnrichment accepts a finished conversation batch and hands it
// to the worker over the queue. 202 means accepted, not processed.
func (rt *Router) enqueueEnrichment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var job domain.EnrichmentJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(job.UserID) == "" || len(job.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and messages are required"})
		return
	}

	if err := rt.queue.PublishEnrichmentJob(r.Context(), job); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
