// Package app wires the cardbox server runtime: config, logging, the
// session store, and the HTTP routes.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"cardbox/cmd/internal/api"
	"cardbox/cmd/internal/scryfall"
	"cardbox/cmd/internal/session"
)

// App is the cardbox server runtime: it owns the HTTP server wiring and
// the session store lifecycle.
type App struct {
	cfg Config
	log Logger

	store  session.Store
	routes *api.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogPretty)
	}

	apiCfg := api.LoadConfigFromEnv()

	store, err := newSessionStore(context.Background(), cfg, apiCfg.CookieTTL(), log)
	if err != nil {
		return nil, err
	}

	dial := api.NewPDSDialer(cfg.PDSHost, cfg.PDSTimeout)

	var packs *scryfall.Client
	if cfg.BoosterEnabled {
		packs = scryfall.New(cfg.ScryfallHost, cfg.ScryfallTimeout)
	}

	return &App{
		cfg:    cfg,
		log:    log,
		store:  store,
		routes: api.NewHandler(log, apiCfg, store, dial, packs),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.store, a.routes)

	handler := WithSecurityHeaders(mux)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"url", runtimeBaseURL(a.cfg.HTTPAddr),
		"pds", a.cfg.PDSHost,
		"redis_enabled", a.cfg.RedisURL != "",
		"booster_enabled", a.cfg.BoosterEnabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

// newSessionStore decides between the shared Redis store and the
// in-memory dev store.
func newSessionStore(ctx context.Context, cfg Config, ttl time.Duration, log Logger) (session.Store, error) {
	if cfg.RedisURL == "" {
		log.Info("session.store.memory")
		return session.NewMemoryStore(), nil
	}
	store, err := session.DialRedis(ctx, cfg.RedisURL, ttl)
	if err != nil {
		return nil, err
	}
	log.Info("session.store.redis")
	return store, nil
}

// runtimeBaseURL renders the listen address as a URL a developer can open.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return "http://" + host + ":" + port
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
