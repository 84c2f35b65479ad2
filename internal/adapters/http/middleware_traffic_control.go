package httpadapter

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitMiddleware throttles the whole inbound surface with a token
// bucket. Per-user limits live in the input gate; this one protects the
// process itself.
func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// backpressureMiddleware bounds the number of requests handled
// concurrently. A request that cannot acquire a slot within the wait
// budget is shed with 503 instead of piling up behind slow upstreams.
func backpressureMiddleware(maxConcurrent int, maxWait time.Duration, next http.Handler) http.Handler {
	if maxConcurrent <= 0 {
		maxConcurrent = 64
	}
	if maxWait <= 0 {
		maxWait = 2 * time.Second
	}
	slots := make(chan struct{}, maxConcurrent)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := time.NewTimer(maxWait)
		defer timer.Stop()

		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			next.ServeHTTP(w, r)
		case <-timer.C:
			w.Header().Set("Retry-After", strconv.Itoa(int(maxWait.Seconds())+1))
			writeError(w, http.StatusServiceUnavailable, "server overloaded")
		case <-r.Context().Done():
		}
	})
}
