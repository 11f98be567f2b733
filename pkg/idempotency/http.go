package idempotency

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const HeaderKey = "Idempotency-Key"

type Checker interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Middleware rejects a request whose Idempotency-Key was already used within
// the store TTL. Requests without the header pass through untouched.
// The key is only kept when the request succeeds, so a failed request can be
// retried with the same key. A failing store lets the request through so the
// cart stays usable.
func Middleware(log *slog.Logger, checker Checker, scope func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" || checker == nil {
				next.ServeHTTP(w, r)
				return
			}
			full := RequestKey(scope(r), key)
			seen, err := checker.Seen(r.Context(), full)
			if err != nil {
				log.Warn("idempotency check failed", "key", full, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				log.Info("duplicate request rejected", "key", full)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "duplicate request"})
				return
			}

			release := func() {
				// the request context may already be cancelled
				if err := checker.Forget(context.WithoutCancel(r.Context()), full); err != nil {
					log.Warn("idempotency release failed", "key", full, "err", err)
				}
			}
			defer func() {
				if p := recover(); p != nil {
					release()
					panic(p)
				}
			}()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				release()
			}
		})
	}
}
