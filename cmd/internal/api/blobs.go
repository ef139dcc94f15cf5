package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"cardbox/cmd/internal/atproto"
)

const (
	blobListDefaultLimit = 50
	blobListMaxLimit     = 500
	enrichScanLimit      = 100
)

func (h *Handler) handleListBlobs(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}

	limit := int64(blobListDefaultLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = min(n, blobListMaxLimit)
		}
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := client.ListBlobs(r.Context(), limit, cursor)
	if err != nil {
		h.upstreamError(w, r, "api.blobs.list.fail", err)
		return
	}

	blobs := make([]*blobInfo, 0, len(page.CIDs))
	byCID := make(map[string]*blobInfo, len(page.CIDs))
	for _, cid := range page.CIDs {
		info := &blobInfo{CID: cid, MimeType: "unknown"}
		blobs = append(blobs, info)
		byCID[cid] = info
	}

	h.enrichBlobs(r, client, byCID)

	writeJSON(w, http.StatusOK, blobListResponse{
		Blobs:      blobs,
		Cursor:     page.Cursor,
		TotalBlobs: len(blobs),
		HasMore:    page.Cursor != "",
	})
}

// enrichBlobs fills in best-effort metadata by cross-referencing records
// that embed blob references. Every failure here degrades the listing to
// less-complete data; none is surfaced to the caller.
func (h *Handler) enrichBlobs(r *http.Request, client Client, byCID map[string]*blobInfo) {
	if len(byCID) == 0 {
		return
	}

	var mu sync.Mutex

	if missing, err := client.ListMissingBlobs(r.Context(), blobListMaxLimit); err != nil {
		h.log.Warn("api.blobs.missing_scan.fail", "err", err)
	} else {
		for _, mb := range missing {
			if info, ok := byCID[mb.CID]; ok && mb.RecordURI != "" {
				info.RecordURI = mb.RecordURI
			}
		}
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for _, collection := range knownCollections {
		g.Go(func() error {
			page, err := client.ListRecords(ctx, collection, enrichScanLimit, "")
			if err != nil {
				// Collection may not exist for this repo; skip it.
				h.log.Debug("api.blobs.enrich.skip", "collection", collection, "err", err)
				return nil
			}
			for _, rec := range page.Records {
				createdAt, _ := rec.Value["createdAt"].(string)
				walkBlobRefs(rec.Value, func(cid, mimeType string, size int64) {
					mu.Lock()
					if info, ok := byCID[cid]; ok {
						info.RecordURI = rec.URI
						if mimeType != "" {
							info.MimeType = mimeType
						}
						if size > 0 {
							info.Size = size
						}
						if createdAt != "" {
							info.CreatedAt = createdAt
						}
					}
					mu.Unlock()
				})
			}
			return nil
		})
	}
	_ = g.Wait()
}

// walkBlobRefs visits every lexicon blob reference nested in a record
// value.
func walkBlobRefs(v any, visit func(cid, mimeType string, size int64)) {
	obj, ok := v.(map[string]any)
	if !ok {
		if arr, ok := v.([]any); ok {
			for _, item := range arr {
				walkBlobRefs(item, visit)
			}
		}
		return
	}

	if t, _ := obj["$type"].(string); t == "blob" {
		if ref, ok := obj["ref"].(map[string]any); ok {
			if cid, _ := ref["$link"].(string); cid != "" {
				mimeType, _ := obj["mimeType"].(string)
				var size int64
				switch n := obj["size"].(type) {
				case float64:
					size = int64(n)
				case int64:
					size = n
				}
				visit(cid, mimeType, size)
			}
		}
	}
	for _, nested := range obj {
		walkBlobRefs(nested, visit)
	}
}

func (h *Handler) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	// The sid query parameter stays supported here because embedded
	// <img> requests cannot always carry the cookie.
	client, ok := h.requireClient(w, r, true)
	if !ok {
		return
	}
	cid := strings.TrimSpace(r.PathValue("cid"))
	if cid == "" {
		writeError(w, http.StatusBadRequest, "Missing cid")
		return
	}

	data, err := client.GetBlob(r.Context(), cid)
	if err != nil {
		if errors.Is(err, atproto.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Blob not found")
			return
		}
		h.upstreamError(w, r, "api.blobs.get.fail", err)
		return
	}

	w.Header().Set("Content-Type", sniffContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", cid))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleBlobRedirect is the legacy image helper: it points the caller at
// a public IPFS gateway for the given CID.
func (h *Handler) handleBlobRedirect(w http.ResponseWriter, r *http.Request) {
	cid := strings.TrimSpace(r.URL.Query().Get("cid"))
	if cid == "" {
		writeError(w, http.StatusBadRequest, "Missing cid")
		return
	}
	http.Redirect(w, r, h.cfg.IPFSGateway+url.PathEscape(cid), http.StatusTemporaryRedirect)
}
