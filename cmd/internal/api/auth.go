package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cardbox/cmd/internal/session"
)

// authState is the terminal state of per-request session resolution.
type authState int

const (
	stateUnauthenticated authState = iota
	stateExpired
	stateAuthenticated
)

type resolution struct {
	state  authState
	client Client
}

// resolveSession walks the auth protocol for one request:
// cookie id -> cached client -> stored record (resume) -> unauthenticated.
//
// A resume failure is terminal for the stored record: the tokens are stale
// and the caller gets the distinct expired signal. Two concurrent requests
// may both resume and both store a client; last write wins.
func resolveSession(ctx context.Context, sid string, store session.Store, clients *session.ClientCache[Client], dial Dialer, log *slog.Logger) (resolution, error) {
	if sid == "" {
		return resolution{state: stateUnauthenticated}, nil
	}

	if c, ok := clients.Get(sid); ok {
		return resolution{state: stateAuthenticated, client: c}, nil
	}

	rec, ok, err := store.Get(ctx, sid)
	if err != nil {
		return resolution{}, err
	}
	if !ok {
		return resolution{state: stateUnauthenticated}, nil
	}

	c, updated, err := dial.Resume(ctx, rec)
	if err != nil {
		log.Info("api.session.resume.fail", "err", err)
		return resolution{state: stateExpired}, nil
	}
	clients.Put(sid, c)
	if updated != rec {
		// Token-refresh update; losing it only costs a refresh next time.
		if err := store.Put(ctx, sid, updated); err != nil {
			log.Warn("api.session.refresh_persist.fail", "err", err)
		}
	}
	return resolution{state: stateAuthenticated, client: c}, nil
}

// sessionID extracts the session id from the cookie, or from the sid query
// parameter for the legacy endpoints embedded images use.
func (h *Handler) sessionID(r *http.Request, allowQuery bool) string {
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	if allowQuery {
		return strings.TrimSpace(r.URL.Query().Get("sid"))
	}
	return ""
}

// requireClient resolves the request's session and writes the appropriate
// 401 when it does not end in Authenticated.
func (h *Handler) requireClient(w http.ResponseWriter, r *http.Request, allowQuery bool) (Client, bool) {
	sid := h.sessionID(r, allowQuery)
	if sid == "" {
		writeError(w, http.StatusUnauthorized, "No session found")
		return nil, false
	}
	res, err := resolveSession(r.Context(), sid, h.store, h.clients, h.dial, h.log)
	if err != nil {
		h.log.Error("api.session.resolve.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	switch res.state {
	case stateAuthenticated:
		return res.client, true
	case stateExpired:
		writeError(w, http.StatusUnauthorized, "Session expired")
		return nil, false
	default:
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   h.cfg.CookieMaxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
