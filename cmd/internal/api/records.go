package api

import (
	"errors"
	"net/http"
	"strings"

	"cardbox/cmd/internal/atproto"
)

const listRecordsLimit = 50

func (h *Handler) handleCollections(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}
	desc, err := client.DescribeRepo(r.Context())
	if err != nil {
		h.upstreamError(w, r, "api.collections.fail", err)
		return
	}
	collections := desc.Collections
	if collections == nil {
		collections = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": collections})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}
	collection := strings.TrimSpace(r.URL.Query().Get("collection"))
	if collection == "" {
		writeError(w, http.StatusBadRequest, "Missing collection parameter")
		return
	}
	page, err := client.ListRecords(r.Context(), collection, listRecordsLimit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.upstreamError(w, r, "api.records.list.fail", err)
		return
	}
	records := page.Records
	if records == nil {
		records = []atproto.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// parseRecordURI validates the path's AT-URI before any upstream call.
func parseRecordURI(w http.ResponseWriter, r *http.Request) (atproto.URI, bool) {
	raw := r.PathValue("uri")
	u, err := atproto.ParseURI(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid collection: must be a valid NSID")
		return atproto.URI{}, false
	}
	return u, true
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}
	u, ok := parseRecordURI(w, r)
	if !ok {
		return
	}
	rec, err := client.GetRecord(r.Context(), u.Collection, u.RKey)
	if err != nil {
		if errors.Is(err, atproto.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		h.upstreamError(w, r, "api.records.get.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (h *Handler) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}
	u, ok := parseRecordURI(w, r)
	if !ok {
		return
	}
	var req putRecordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "Missing record value")
		return
	}
	res, err := client.PutRecord(r.Context(), u.Collection, u.RKey, req.Value)
	if err != nil {
		h.upstreamError(w, r, "api.records.put.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": res})
}

// upstreamError translates protocol-client failures that are not handled
// specially at the call site.
//
// Auth failures also evict the cached client handle: its tokens have
// lapsed mid-lifetime, and keeping it would pin every later request to
// the same dead handle instead of resuming from the stored record (whose
// refresh token is usually still good).
func (h *Handler) upstreamError(w http.ResponseWriter, r *http.Request, event string, err error) {
	h.log.Error(event, "err", err)
	switch {
	case errors.Is(err, atproto.ErrAuth), errors.Is(err, atproto.ErrExpired):
		if sid := h.sessionID(r, true); sid != "" {
			h.clients.Delete(sid)
		}
		writeError(w, http.StatusUnauthorized, "Session expired")
	default:
		writeErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
