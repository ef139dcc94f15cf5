// Package scryfall is a minimal client for the Scryfall card API, used by
// the booster endpoint as its source of random cards.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultHost is the public Scryfall API endpoint.
const DefaultHost = "https://api.scryfall.com"

const maxImageBytes = 8 << 20

// Card is the subset of a Scryfall card the booster uses.
type Card struct {
	Name        string `json:"name"`
	Power       string `json:"power"`
	Toughness   string `json:"toughness"`
	TypeLine    string `json:"type_line"`
	Rarity      string `json:"rarity"`
	ScryfallURI string `json:"scryfall_uri"`
	ManaCost    string `json:"mana_cost"`
	ImageURIs   struct {
		Normal string `json:"normal"`
	} `json:"image_uris"`
}

// Client talks to the Scryfall REST API.
type Client struct {
	host string
	http *http.Client
}

// New constructs a Client for host (DefaultHost when empty).
func New(host string, timeout time.Duration) *Client {
	if strings.TrimSpace(host) == "" {
		host = DefaultHost
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		host: strings.TrimRight(host, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// RandomCard fetches one random card.
func (c *Client) RandomCard(ctx context.Context) (Card, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/cards/random", nil)
	if err != nil {
		return Card{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Card{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Card{}, fmt.Errorf("scryfall: random card: status %d", resp.StatusCode)
	}
	var card Card
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return Card{}, fmt.Errorf("scryfall: decode card: %w", err)
	}
	return card, nil
}

// FetchImage downloads a card image by URL. The size cap keeps a
// misbehaving upstream from ballooning a booster request.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scryfall: image fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}
