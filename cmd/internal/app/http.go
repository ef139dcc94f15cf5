package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardbox/cmd/internal/api"
	"cardbox/cmd/internal/session"
)

// pinger is implemented by stores with a reachable backend (Redis). The
// in-memory store is always ready.
type pinger interface {
	Ping(ctx context.Context) error
}

func registerHTTP(mux *http.ServeMux, log Logger, cfg Config, store session.Store, routes *api.Handler) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		p, backed := store.(pinger)
		if cfg.ReadinessRequireRedis && !backed {
			http.Error(w, "redis not configured", http.StatusServiceUnavailable)
			return
		}
		if backed {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Info("readyz.redis.not_ready", "err", err)
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	routes.Register(mux)
}
