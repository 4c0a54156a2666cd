package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env        string
	ListenAddr string

	BackendURL       string
	PublicBackendURL string
	DatabaseURL      string

	SessionSecret      string
	SessionIssuer      string
	SessionAudience    string
	SessionTTL         time.Duration
	SessionRememberTTL time.Duration

	CSRFTrustedOrigins []string

	MonitorCheckInterval       time.Duration
	MonitorInactivityThreshold time.Duration

	AuthRateLimitRPM int
	APIRateLimitRPM  int
	RedisAddr        string

	BodyLimitBytes int64

	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELEnvironment           string
	OTELMetricsExportInterval time.Duration
	EnableOTelHTTP            bool

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func Load() (*Config, error) {
	cfg := &Config{
		Env:        getEnv("APP_ENV", "development"),
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		BackendURL:       getEnv("BACKEND_URL", ""),
		PublicBackendURL: getEnv("PUBLIC_BACKEND_URL", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),

		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionIssuer:      getEnv("SESSION_ISSUER", "trackivity-bff"),
		SessionAudience:    getEnv("SESSION_AUDIENCE", "trackivity-web"),
		SessionTTL:         getDuration("SESSION_TTL", 7*24*time.Hour),
		SessionRememberTTL: getDuration("SESSION_REMEMBER_TTL", 30*24*time.Hour),

		CSRFTrustedOrigins: getList("CSRF_TRUSTED_ORIGINS"),

		MonitorCheckInterval:       getDuration("MONITOR_CHECK_INTERVAL", 30*time.Minute),
		MonitorInactivityThreshold: getDuration("MONITOR_INACTIVITY_THRESHOLD", 60*time.Minute),

		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 30),
		APIRateLimitRPM:  getInt("API_RATE_LIMIT_RPM", 600),
		RedisAddr:        getEnv("REDIS_ADDR", ""),

		BodyLimitBytes: int64(getInt("BODY_LIMIT_BYTES", 1<<20)),

		OTELMetricsEnabled:        getBool("OTEL_METRICS_ENABLED", false),
		OTELTracesEnabled:         getBool("OTEL_TRACES_ENABLED", false),
		OTELLogsEnabled:           getBool("OTEL_LOGS_ENABLED", false),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "trackivity-web-bff"),
		OTELEnvironment:           getEnv("OTEL_ENVIRONMENT", "development"),
		OTELMetricsExportInterval: getDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),
		EnableOTelHTTP:            getBool("OTEL_HTTP_ENABLED", false),

		ReadHeaderTimeout: getDuration("READ_HEADER_TIMEOUT", 5*time.Second),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	if err := cfg.validate(); err != nil {
		recordConfigValidationEvent(context.Background(), cfg.Env, "invalid", classifyConfigError(err))
		return nil, fmt.Errorf("validate config: %w", err)
	}
	recordConfigValidationEvent(context.Background(), cfg.Env, "valid", "none")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("BACKEND_URL %q is not an absolute URL", c.BackendURL)
		}
	}
	if c.PublicBackendURL != "" {
		u, err := url.Parse(c.PublicBackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("PUBLIC_BACKEND_URL %q is not an absolute URL", c.PublicBackendURL)
		}
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
	}
	if c.SessionTTL <= 0 || c.SessionRememberTTL < c.SessionTTL {
		return fmt.Errorf("session TTLs out of order: default %s, remember %s", c.SessionTTL, c.SessionRememberTTL)
	}
	if c.MonitorCheckInterval <= 0 || c.MonitorInactivityThreshold < c.MonitorCheckInterval {
		return fmt.Errorf("monitor intervals out of order: check %s, inactivity %s", c.MonitorCheckInterval, c.MonitorInactivityThreshold)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
