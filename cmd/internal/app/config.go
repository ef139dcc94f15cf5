package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// PDSHost is the AT protocol personal data server every login talks to.
	PDSHost    string
	PDSTimeout time.Duration

	// RedisURL enables the shared session store. Empty means in-memory
	// sessions that do not survive a restart.
	RedisURL string

	ScryfallHost    string
	ScryfallTimeout time.Duration
	BoosterEnabled  bool

	// If true:
	// - /readyz returns 503 unless Redis is configured and reachable.
	ReadinessRequireRedis bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("CARDBOX_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("CARDBOX_LOG_LEVEL", "info"),
		LogPretty: EnvBool("CARDBOX_LOG_PRETTY", false),

		ReadHeaderTimeout: EnvDuration("CARDBOX_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("CARDBOX_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("CARDBOX_HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       EnvDuration("CARDBOX_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("CARDBOX_HTTP_MAX_HEADER_BYTES", 1<<20),

		PDSHost:    EnvString("CARDBOX_PDS_HOST", "https://bsky.social"),
		PDSTimeout: EnvDuration("CARDBOX_PDS_TIMEOUT", 30*time.Second),

		RedisURL: EnvString("CARDBOX_REDIS_URL", ""),

		ScryfallHost:    EnvString("CARDBOX_SCRYFALL_HOST", ""),
		ScryfallTimeout: EnvDuration("CARDBOX_SCRYFALL_TIMEOUT", 15*time.Second),
		BoosterEnabled:  EnvBool("CARDBOX_BOOSTER_ENABLED", true),

		ReadinessRequireRedis: EnvBool("CARDBOX_READINESS_REQUIRE_REDIS", false),

		CORSAllowedOrigins:   EnvStrings("CARDBOX_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("CARDBOX_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("CARDBOX_CORS_MAX_AGE_SECONDS", 600),
	}
}
