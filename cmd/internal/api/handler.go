// Package api implements the HTTP surface of the card console: session
// endpoints, repository record/blob browsing, and the trading-card game
// routes. Every handler follows the same shape: resolve the session,
// invoke one protocol operation, translate the result into JSON.
package api

import (
	"log/slog"
	"net/http"

	"cardbox/cmd/internal/scryfall"
	"cardbox/cmd/internal/session"
)

// Handler wires the console routes to the session cache and the protocol
// client boundary.
type Handler struct {
	log *slog.Logger
	cfg Config

	store   session.Store
	clients *session.ClientCache[Client]
	dial    Dialer
	packs   *scryfall.Client

	loginLimiter *ipRateLimiter
}

// NewHandler constructs the route handler. packs may be nil, which turns
// the booster endpoint into a 503.
func NewHandler(log *slog.Logger, cfg Config, store session.Store, dial Dialer, packs *scryfall.Client) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:          log,
		cfg:          cfg,
		store:        store,
		clients:      session.NewClientCache[Client](),
		dial:         dial,
		packs:        packs,
		loginLimiter: newIPRateLimiter(cfg.LoginRatePerMin, cfg.LoginRateBurst),
	}
}

// Register wires the console routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("POST /api/logout", h.handleLogout)
	mux.HandleFunc("GET /api/session", h.handleSession)

	mux.HandleFunc("GET /api/collections", h.handleCollections)
	mux.HandleFunc("GET /api/records", h.handleListRecords)
	mux.HandleFunc("GET /api/records/{uri...}", h.handleGetRecord)
	mux.HandleFunc("PUT /api/records/{uri...}", h.handlePutRecord)

	mux.HandleFunc("GET /api/blobs", h.handleListBlobs)
	mux.HandleFunc("GET /api/blobs/{cid}", h.handleGetBlob)
	mux.HandleFunc("GET /api/blob", h.handleBlobRedirect)
	mux.HandleFunc("POST /api/upload-image", h.handleUploadImage)

	mux.HandleFunc("POST /api/create-card", h.handleCreateCard)
	mux.HandleFunc("POST /api/cards", h.handleListCards)
	mux.HandleFunc("DELETE /api/cards", h.handleDeleteCards)
	mux.HandleFunc("POST /api/booster", h.handleBooster)

	mux.HandleFunc("GET /api/profile", h.handleProfile)
}
