package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
	"github.com/nqhuy/admissions-assistant/internal/core/ports"
	"github.com/nqhuy/admissions-assistant/internal/observability/metrics"
)

const serviceName = "api"

// Options tunes the traffic-control layer in front of the pipeline.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	MaxWait        time.Duration
}

type Router struct {
	answerer ports.QueryAnswerer
	metrics  *metrics.APIMetrics
	opts     Options
}

func NewRouter(answerer ports.QueryAnswerer, m *metrics.APIMetrics, opts Options) *Router {
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 50
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = int(opts.RateLimitRPS) * 2
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 64
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 2 * time.Second
	}
	return &Router{
		answerer: answerer,
		metrics:  m,
		opts:     opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/qa/query", rt.answerQuery)

	limiter := rate.NewLimiter(rate.Limit(rt.opts.RateLimitRPS), rt.opts.RateLimitBurst)

	var handler http.Handler = mux
	handler = backpressureMiddleware(rt.opts.MaxConcurrent, rt.opts.MaxWait, handler)
	handler = rateLimitMiddleware(limiter, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) answerQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rt.metrics.RequestStarted()
	defer rt.metrics.RequestFinished()
	start := time.Now()

	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.finishRequest(r, http.StatusBadRequest, start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		rt.finishRequest(r, http.StatusBadRequest, start)
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		rt.finishRequest(r, http.StatusBadRequest, start)
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	req.RequestID = requestIDFromContext(r.Context())

	answer, err := rt.answerer.Answer(r.Context(), req)
	if err != nil {
		status := statusFromError(err)
		rt.recordFailure(req, err, status)
		rt.finishRequest(r, status, start)
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "60")
		}
		writeError(w, status, clientMessage(err, status))
		return
	}

	rt.metrics.ObservePipeline(
		serviceName,
		string(answer.Action),
		answer.Stats.Correct,
		answer.Stats.Ambiguous,
		answer.Stats.Incorrect,
		answer.Stats.AfterMerge,
		time.Since(start),
	)
	rt.metrics.GenerationSucceeded(serviceName, answer.Model)
	rt.finishRequest(r, http.StatusOK, start)
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) recordFailure(req domain.QueryRequest, err error, status int) {
	switch status {
	case http.StatusBadRequest:
		rt.metrics.GateRejected(serviceName, "invalid_input")
	case http.StatusTooManyRequests:
		rt.metrics.GateRejected(serviceName, "rate_limited")
	case http.StatusServiceUnavailable:
		rt.metrics.GenerationExhausted(serviceName)
	}

	slog.Error("query_failed",
		"request_id", req.RequestID,
		"user_id", req.UserID,
		"status", status,
		"error", err,
	)
}

func (rt *Router) finishRequest(r *http.Request, status int, start time.Time) {
	rt.metrics.ObserveRequest(serviceName, r.Method, r.URL.Path, status, time.Since(start))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
