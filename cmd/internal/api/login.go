package api

import (
	"net/http"
	"strings"

	"cardbox/cmd/internal/session"
)

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.loginLimiter.allow(remoteIP(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	password := strings.TrimSpace(req.Password)
	if identifier == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}

	sid := session.NewID()

	client, err := h.dial.Login(r.Context(), identifier, password)
	if err != nil {
		h.log.Info("api.login.fail", "identifier", identifier, "err", err)
		writeError(w, http.StatusUnauthorized, "Login failed")
		return
	}

	sess := client.Session()
	if err := h.store.Put(r.Context(), sid, sess); err != nil {
		h.log.Error("api.login.persist.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.clients.Put(sid, client)

	h.log.Info("api.login.ok", "did", sess.Did, "handle", sess.Handle)
	h.setSessionCookie(w, sid)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid := h.sessionID(r, false); sid != "" {
		if err := h.store.Delete(r.Context(), sid); err != nil {
			h.log.Warn("api.logout.delete.fail", "err", err)
		}
		h.clients.Delete(sid)
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(r, false)
	if sid == "" {
		writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: false})
		return
	}
	rec, ok, err := h.store.Get(r.Context(), sid)
	if err != nil {
		h.log.Error("api.session.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: false})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: true, Identifier: rec.Handle})
}
