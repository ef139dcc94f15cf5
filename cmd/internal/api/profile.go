package api

import (
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

type profileRecord struct {
	URI       string         `json:"uri"`
	CID       string         `json:"cid"`
	Value     map[string]any `json:"value"`
	CreatedAt any            `json:"createdAt"`
}

// handleProfile surveys the repository across the known collections and
// attaches the bsky profile view. Every part is best-effort; a collection
// that does not exist is simply absent from the result.
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}

	var mu sync.Mutex
	records := make(map[string][]profileRecord)

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for _, collection := range knownCollections {
		g.Go(func() error {
			page, err := client.ListRecords(ctx, collection, enrichScanLimit, "")
			if err != nil {
				h.log.Debug("api.profile.collection.skip", "collection", collection, "err", err)
				return nil
			}
			if len(page.Records) == 0 {
				return nil
			}
			rows := make([]profileRecord, 0, len(page.Records))
			for _, rec := range page.Records {
				var createdAt any
				if v, ok := rec.Value["createdAt"]; ok {
					createdAt = v
				}
				rows = append(rows, profileRecord{URI: rec.URI, CID: rec.CID, Value: rec.Value, CreatedAt: createdAt})
			}
			mu.Lock()
			records[collection] = rows
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	profile, err := client.GetProfile(r.Context())
	if err != nil {
		h.log.Warn("api.profile.view.fail", "err", err)
		profile = nil
	}

	total := 0
	for _, rows := range records {
		total += len(rows)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"did":              client.Session().Did,
		"profile":          profile,
		"records":          records,
		"totalCollections": len(records),
		"totalRecords":     total,
	})
}
