package api

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"CARDBOX_COOKIE_NAME", "CARDBOX_BOOSTER_SIZE", "CARDBOX_IPFS_GATEWAY"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfigFromEnv()

	if cfg.CookieName != "atp_session" {
		t.Errorf("cookie name: got %q", cfg.CookieName)
	}
	if cfg.BoosterSize != 3 {
		t.Errorf("booster size: got %d, want 3", cfg.BoosterSize)
	}
	if cfg.IPFSGateway != "https://ipfs.io/ipfs/" {
		t.Errorf("ipfs gateway: got %q, want https://ipfs.io/ipfs/", cfg.IPFSGateway)
	}
	if !strings.HasSuffix(cfg.IPFSGateway, "/") {
		t.Error("gateway must end with a slash for cid concatenation")
	}
	if cfg.CookieTTL() != time.Duration(cfg.CookieMaxAge)*time.Second {
		t.Errorf("cookie ttl: got %v", cfg.CookieTTL())
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CARDBOX_IPFS_GATEWAY", "https://dweb.link/ipfs/")
	t.Setenv("CARDBOX_BOOSTER_SIZE", "5")
	t.Setenv("CARDBOX_COOKIE_SECURE", "true")

	cfg := LoadConfigFromEnv()
	if cfg.IPFSGateway != "https://dweb.link/ipfs/" {
		t.Errorf("ipfs gateway: got %q", cfg.IPFSGateway)
	}
	if cfg.BoosterSize != 5 {
		t.Errorf("booster size: got %d, want 5", cfg.BoosterSize)
	}
	if !cfg.CookieSecure {
		t.Error("cookie secure should be on")
	}
}
