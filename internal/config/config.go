package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultDatabaseDSN = "host=localhost user=postgres password=postgres dbname=rootify port=5432 sslmode=disable"
)

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	StoreDriver    string
	JWTSecret      string
	CORSOrigins    string
	PublicDir      string
	PasswordSignup bool
	BodyLimitMB    int

	SessionTTL time.Duration
	// SessionSweepInterval is how often expired sessions are purged.
	SessionSweepInterval time.Duration

	Gemini GeminiConfig
	OIDC   OIDCConfig

	// Warnings collects non-fatal notes about defaulted settings; main logs them.
	Warnings []string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OIDCConfig configures the federated login relying party.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	// CookieKey seeds the keys of the state/PKCE cookies. Shared by every
	// instance so a login started on one can finish on another.
	CookieKey string
}

// Enabled reports whether enough is configured to run the federated flow.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != "" && o.RedirectURI != ""
}

// SecureCookies reports whether the federated cookies need the Secure flag,
// which is the case unless the callback is served over plain http.
func (o OIDCConfig) SecureCookies() bool {
	return !strings.HasPrefix(strings.ToLower(o.RedirectURI), "http://")
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnv("HTTP_PORT", "")
	if port == "" {
		port = getEnv("PORT", "8080")
	}

	cfg := &Config{
		HTTPPort:       port,
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDatabaseDSN),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "*"),
		PublicDir:      getEnv("PUBLIC_DIR", "./public"),
		PasswordSignup: getEnvBool("PASSWORD_SIGNUP", true),
		BodyLimitMB:    getEnvInt("BODY_LIMIT_MB", 50),
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
			BaseURL: strings.TrimRight(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"), "/"),
		},
		OIDC: OIDCConfig{
			Issuer:       getEnv("OIDC_ISSUER", ""),
			ClientID:     getEnv("OIDC_CLIENT_ID", ""),
			ClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("OIDC_REDIRECT_URI", ""),
			Scopes:       splitList(getEnv("OIDC_SCOPES", "openid,profile,email")),
			CookieKey:    getEnv("OIDC_COOKIE_KEY", ""),
		},
	}

	var err error
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getEnvDuration("SESSION_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.Gemini.Timeout, err = getEnvDuration("GEMINI_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.StoreDriver != StoreDriverPostgres && cfg.StoreDriver != StoreDriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}
	if cfg.SessionTTL <= 0 || cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_TTL and SESSION_SWEEP_INTERVAL must be positive")
	}
	if cfg.OIDC.CookieKey != "" && len(cfg.OIDC.CookieKey) < 32 {
		return nil, fmt.Errorf("OIDC_COOKIE_KEY must be at least 32 characters")
	}
	if cfg.BodyLimitMB <= 0 {
		return nil, fmt.Errorf("BODY_LIMIT_MB must be positive")
	}

	if cfg.StoreDriver == StoreDriverPostgres && cfg.DatabaseDSN == defaultDatabaseDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN is using the local default")
	}
	if cfg.CORSOrigins == "*" {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS allows every origin")
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "GEMINI_API_KEY is not set; /ask-gemini will fail")
	}
	if !cfg.OIDC.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "OIDC is not configured; federated login disabled")
	} else if cfg.OIDC.CookieKey == "" {
		cfg.Warnings = append(cfg.Warnings, "OIDC_COOKIE_KEY is not set; federated logins in flight fail after a restart")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
