package api

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardbox/cmd/internal/atproto"
)

// cardRecordValue builds the app.tcg.card record for a client-supplied
// card.
func cardRecordValue(card cardInput, imageCID string) map[string]any {
	value := map[string]any{
		"name":      card.Name,
		"attack":    card.Attack,
		"defense":   card.Defense,
		"type":      card.Type,
		"rarity":    card.Rarity,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if imageCID != "" {
		value["imageCid"] = imageCID
	}
	return value
}

// isCardValue filters listRecords values down to well-formed cards, the
// way the legacy card list always has.
func isCardValue(v map[string]any) bool {
	if v == nil {
		return false
	}
	_, nameOK := v["name"].(string)
	_, typeOK := v["type"].(string)
	_, rarityOK := v["rarity"].(string)
	_, attackOK := v["attack"].(float64)
	_, defenseOK := v["defense"].(float64)
	return nameOK && typeOK && rarityOK && attackOK && defenseOK
}

// clientForCardWrite resolves a client for the card-creation endpoints,
// which keep an inline-credential fallback for clients without a cookie.
func (h *Handler) clientForCardWrite(w http.ResponseWriter, r *http.Request, identifier, password string) (Client, bool) {
	sid := h.sessionID(r, false)
	if sid != "" {
		res, err := resolveSession(r.Context(), sid, h.store, h.clients, h.dial, h.log)
		if err != nil {
			h.log.Error("api.session.resolve.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return nil, false
		}
		if res.state == stateAuthenticated {
			return res.client, true
		}
	}

	identifier = strings.TrimSpace(identifier)
	password = strings.TrimSpace(password)
	if identifier == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Missing credentials or session")
		return nil, false
	}
	client, err := h.dial.Login(r.Context(), identifier, password)
	if err != nil {
		h.log.Info("api.cards.inline_login.fail", "err", err)
		writeError(w, http.StatusUnauthorized, "Login failed")
		return nil, false
	}
	if sid != "" {
		h.clients.Put(sid, client)
	}
	return client, true
}

func (h *Handler) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil || req.Card == nil {
		writeError(w, http.StatusBadRequest, "Missing card data")
		return
	}
	if strings.TrimSpace(req.Card.Name) == "" {
		writeError(w, http.StatusBadRequest, "Card name is required")
		return
	}

	client, ok := h.clientForCardWrite(w, r, req.Identifier, req.Password)
	if !ok {
		return
	}

	var imageCID string
	if req.Card.ImageBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(req.Card.ImageBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid image data")
			return
		}
		blob, err := client.UploadBlob(r.Context(), bytes.NewReader(raw), sniffContentType(raw))
		if err != nil {
			h.upstreamError(w, r, "api.cards.image_upload.fail", err)
			return
		}
		imageCID = blob.CID
	}

	res, err := client.CreateRecord(r.Context(), CardCollection, cardRecordValue(*req.Card, imageCID))
	if err != nil {
		h.upstreamError(w, r, "api.cards.create.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": res})
}

// handleListCards is the legacy credential-bodied card list: it always
// performs a fresh login with the posted credentials.
func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}
	client, err := h.dial.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Login failed")
		return
	}

	page, err := client.ListRecords(r.Context(), CardCollection, 0, "")
	if err != nil {
		h.upstreamError(w, r, "api.cards.list.fail", err)
		return
	}
	cards := make([]map[string]any, 0, len(page.Records))
	for _, rec := range page.Records {
		if isCardValue(rec.Value) {
			cards = append(cards, rec.Value)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (h *Handler) handleDeleteCards(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}

	var req deleteCardsRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if req.URI != "" {
		u, err := atproto.ParseURI(req.URI)
		if err != nil || u.Collection != CardCollection {
			writeError(w, http.StatusBadRequest, "Invalid card URI")
			return
		}
		if err := client.DeleteRecord(r.Context(), u.Collection, u.RKey); err != nil {
			h.upstreamError(w, r, "api.cards.delete.fail", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Card deleted"})
		return
	}

	// No URI: clear the whole collection, page by page.
	deleted := 0
	cursor := ""
	for {
		page, err := client.ListRecords(r.Context(), CardCollection, listRecordsLimit, cursor)
		if err != nil {
			h.upstreamError(w, r, "api.cards.delete_all.list.fail", err)
			return
		}
		for _, rec := range page.Records {
			u, err := atproto.ParseURI(rec.URI)
			if err != nil {
				continue
			}
			if err := client.DeleteRecord(r.Context(), u.Collection, u.RKey); err != nil {
				h.upstreamError(w, r, "api.cards.delete_all.fail", err)
				return
			}
			deleted++
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Deleted %d cards", deleted),
	})
}
