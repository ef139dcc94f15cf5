package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"cardbox/cmd/internal/atproto"
	"cardbox/cmd/internal/scryfall"
)

// pulledCard is one booster slot: card data plus its fetched image, if
// any.
type pulledCard struct {
	card  scryfall.Card
	image []byte
}

func (h *Handler) handleBooster(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}
	if h.packs == nil {
		writeError(w, http.StatusServiceUnavailable, "Booster source not configured")
		return
	}

	pulls := h.pullBoosterCards(r.Context(), h.cfg.BoosterSize)

	created := make([]atproto.WriteResult, 0, len(pulls))
	for i, pull := range pulls {
		value := boosterRecordValue(pull.card)

		if len(pull.image) > 0 {
			blob, err := client.UploadBlob(r.Context(), bytes.NewReader(pull.image), sniffContentType(pull.image))
			if err != nil {
				h.log.Warn("api.booster.image_upload.fail", "card", pull.card.Name, "err", err)
			} else {
				value["image"] = blob.AsRecordValue()
			}
		}

		res, err := client.CreateRecord(r.Context(), CardCollection, value)
		if err != nil {
			h.upstreamError(w, r, "api.booster.create.fail", err)
			return
		}
		h.log.Info("api.booster.card_created", "slot", i+1, "name", pull.card.Name, "uri", res.URI)
		created = append(created, res)
	}

	writeJSON(w, http.StatusCreated, boosterResponse{
		Success: true,
		Cards:   created,
		Count:   len(created),
	})
}

// pullBoosterCards fetches n random cards and their images concurrently.
// A slot whose fetch fails is dropped; the pack degrades rather than the
// request failing.
func (h *Handler) pullBoosterCards(ctx context.Context, n int) []pulledCard {
	slots := make([]*pulledCard, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i := range slots {
		g.Go(func() error {
			card, err := h.packs.RandomCard(gctx)
			if err != nil {
				h.log.Warn("api.booster.pull.fail", "slot", i+1, "err", err)
				return nil
			}
			pull := &pulledCard{card: card}
			if card.ImageURIs.Normal != "" {
				if img, err := h.packs.FetchImage(gctx, card.ImageURIs.Normal); err != nil {
					h.log.Warn("api.booster.image.fail", "card", card.Name, "err", err)
				} else {
					pull.image = img
				}
			}
			slots[i] = pull
			return nil
		})
	}
	_ = g.Wait()

	pulls := make([]pulledCard, 0, n)
	for _, s := range slots {
		if s != nil {
			pulls = append(pulls, *s)
		}
	}
	return pulls
}

// boosterRecordValue maps a Scryfall card onto the card record schema.
// Power/toughness strings like "*" parse as zero.
func boosterRecordValue(card scryfall.Card) map[string]any {
	attack, _ := strconv.Atoi(card.Power)
	defense, _ := strconv.Atoi(card.Toughness)

	typeLine := card.TypeLine
	if typeLine == "" {
		typeLine = "Unknown"
	}
	rarity := card.Rarity
	if rarity == "" {
		rarity = "common"
	}

	return map[string]any{
		"name":         card.Name,
		"attack":       attack,
		"defense":      defense,
		"type":         typeLine,
		"rarity":       rarity,
		"createdAt":    time.Now().UTC().Format(time.RFC3339),
		"scryfall_uri": card.ScryfallURI,
		"mana_cost":    card.ManaCost,
	}
}
