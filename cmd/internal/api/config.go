package api

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CardCollection is the NSID under which trading cards are persisted.
const CardCollection = "app.tcg.card"

// knownCollections are scanned for blob references and repo surveys.
// Best-effort: a collection that does not exist is skipped.
var knownCollections = []string{
	"app.bsky.feed.post",
	"app.bsky.feed.like",
	"app.bsky.feed.repost",
	"app.bsky.graph.follow",
	"app.bsky.graph.block",
	"app.bsky.actor.profile",
	CardCollection,
}

// Config controls route behavior.
type Config struct {
	CookieName   string
	CookieMaxAge int
	CookieSecure bool

	MaxBodyBytes   int64
	MaxUploadBytes int64

	BoosterSize int

	LoginRatePerMin int
	LoginRateBurst  int

	// IPFSGateway serves the legacy /api/blob?cid= redirect.
	IPFSGateway string
}

// LoadConfigFromEnv loads route config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		CookieName:      envString("CARDBOX_COOKIE_NAME", "atp_session"),
		CookieMaxAge:    envInt("CARDBOX_COOKIE_MAX_AGE_SECONDS", 31536000), // 1 year
		CookieSecure:    envBool("CARDBOX_COOKIE_SECURE", false),
		MaxBodyBytes:    envInt64("CARDBOX_MAX_BODY_BYTES", 1<<20),
		MaxUploadBytes:  envInt64("CARDBOX_MAX_UPLOAD_BYTES", 10<<20),
		BoosterSize:     envInt("CARDBOX_BOOSTER_SIZE", 3),
		LoginRatePerMin: envInt("CARDBOX_LOGIN_RATE_PER_MIN", 10),
		LoginRateBurst:  envInt("CARDBOX_LOGIN_RATE_BURST", 5),
		IPFSGateway:     envString("CARDBOX_IPFS_GATEWAY", "https://ipfs.io/ipfs/"),
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.BoosterSize <= 0 {
		cfg.BoosterSize = 3
	}
	return cfg
}

// CookieTTL is the cookie lifetime as a duration, shared with the Redis
// store so records do not outlive their cookie.
func (c Config) CookieTTL() time.Duration {
	return time.Duration(c.CookieMaxAge) * time.Second
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
