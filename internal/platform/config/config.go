package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"regdesk/pkg/domain"
)

// DefaultBackendURL is the registry API the desk was built against.
const DefaultBackendURL = "https://backend-fast-api-ai.fly.dev/api"

// Server captures HTTP server level configuration.
type Server struct {
	Addr       string
	AdminToken string
	Log        LogConfig
	Backend    BackendConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Kafka      KafkaConfig
	Session    SessionConfig
	Display    DisplayConfig
	Imaging    ImagingConfig

	SearchCacheTTL   time.Duration
	DraftTTL         time.Duration
	AuditAsyncBuffer int
}

type LogConfig struct {
	Level  string
	Format string // text or json
}

// BackendConfig drives the registry API client.
type BackendConfig struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	FollowUpTimeout time.Duration
	// Endpoints routes each category's registration. Categories without an
	// entry use /register/upload.
	Endpoints map[domain.Category]string
}

// RedisConfig is optional; an empty URL keeps every cache in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	DSN string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SessionConfig struct {
	SigningKey    string
	TTL           time.Duration
	OperatorsFile string

	// Failed logins allowed per username and IP inside LockoutWindow before
	// the pair is locked for LockoutDuration.
	MaxFailedLogins int
	LockoutWindow   time.Duration
	LockoutDuration time.Duration
}

type DisplayConfig struct {
	RevealIdentity  bool
	DefaultLanguage string
}

type ImagingConfig struct {
	AdultMaxBytes int64
	MinorMaxBytes int64
}

// RegistrationEndpoint returns the backend path used to register a category.
func (c BackendConfig) RegistrationEndpoint(category domain.Category) string {
	if ep, ok := c.Endpoints[category]; ok && ep != "" {
		return ep
	}
	return "/register/upload"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	signingKey := os.Getenv("REGDESK_SESSION_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	endpoints := map[domain.Category]string{}
	for _, c := range domain.Categories() {
		if ep := os.Getenv("REGDESK_ENDPOINT_" + strings.ToUpper(c.String())); ep != "" {
			endpoints[c] = ep
		}
	}

	return Server{
		Addr:       envString("REGDESK_ADDR", ":8080"),
		AdminToken: os.Getenv("REGDESK_ADMIN_TOKEN"),
		Log: LogConfig{
			Level:  envString("REGDESK_LOG_LEVEL", "info"),
			Format: envString("REGDESK_LOG_FORMAT", "text"),
		},
		Backend: BackendConfig{
			BaseURL:         strings.TrimRight(envString("REGDESK_BACKEND_URL", DefaultBackendURL), "/"),
			Token:           os.Getenv("REGDESK_BACKEND_TOKEN"),
			Timeout:         envDuration("REGDESK_BACKEND_TIMEOUT", 30*time.Second),
			MaxRetries:      envInt("REGDESK_BACKEND_RETRIES", 2),
			RetryBackoff:    envDuration("REGDESK_BACKEND_BACKOFF", time.Second),
			FollowUpTimeout: envDuration("REGDESK_FOLLOWUP_TIMEOUT", 20*time.Second),
			Endpoints:       endpoints,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REGDESK_REDIS_URL"),
			PoolSize:     envInt("REGDESK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REGDESK_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("REGDESK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REGDESK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REGDESK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{DSN: os.Getenv("REGDESK_POSTGRES_DSN")},
		Kafka: KafkaConfig{
			Brokers: envList("REGDESK_KAFKA_BROKERS"),
			Topic:   envString("REGDESK_KAFKA_AUDIT_TOPIC", "regdesk.audit"),
		},
		Session: SessionConfig{
			SigningKey:    signingKey,
			TTL:           envDuration("REGDESK_SESSION_TTL", 8*time.Hour),
			OperatorsFile: os.Getenv("REGDESK_OPERATORS_FILE"),

			MaxFailedLogins: envInt("REGDESK_LOGIN_MAX_FAILURES", 5),
			LockoutWindow:   envDuration("REGDESK_LOGIN_WINDOW", 15*time.Minute),
			LockoutDuration: envDuration("REGDESK_LOGIN_LOCKOUT", 15*time.Minute),
		},
		Display: DisplayConfig{
			RevealIdentity:  envBool("REGDESK_REVEAL_IDENTITY", true),
			DefaultLanguage: envString("REGDESK_DEFAULT_LANGUAGE", "en"),
		},
		Imaging: ImagingConfig{
			AdultMaxBytes: int64(envInt("REGDESK_IMAGE_MAX_ADULT", 5<<20)),
			MinorMaxBytes: int64(envInt("REGDESK_IMAGE_MAX_MINOR", 6<<20)),
		},
		SearchCacheTTL:   envDuration("REGDESK_SEARCH_CACHE_TTL", 5*time.Minute),
		DraftTTL:         envDuration("REGDESK_DRAFT_TTL", 24*time.Hour),
		AuditAsyncBuffer: envInt("REGDESK_AUDIT_BUFFER", 256),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
