package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Identity comes from the gateway in front of this service: it authenticates
// the caller and forwards the verified ids. This service only reads them.
const (
	headerUserID  = "X-User-ID"
	headerAdminID = "X-Admin-ID"
)

func userID(r *http.Request) string {
	return r.Header.Get(headerUserID)
}

func adminID(r *http.Request) string {
	return r.Header.Get(headerAdminID)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := userID(r)
	if id == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: codeUnauthorized, Message: "X-User-ID header is required"})
		return "", false
	}
	return id, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := adminID(r)
	if id == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: codeUnauthorized, Message: "X-Admin-ID header is required"})
		return "", false
	}
	return id, true
}

// actorLimiter rate-limits per calling identity. Anonymous requests share one
// bucket keyed by empty string; they only reach public read endpoints anyway.
type actorLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newActorLimiter(rps float64, burst int) *actorLimiter {
	return &actorLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *actorLimiter) limiter(actor string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[actor]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[actor] = lim
	}
	return lim
}

func (l *actorLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := userID(r)
		if actor == "" {
			actor = adminID(r)
		}
		if !l.limiter(actor).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Code: codeRateLimited, Message: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
