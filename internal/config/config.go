package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	OTP          OTPConfig
	Notification NotificationConfig
	Events       EventsConfig
	Bootstrap    BootstrapConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr keeps sessions
// in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret         string
	SessionTTLMinutes int
	BcryptCost        int
	CookieName        string
	CookieHashKey     string
	CookieBlockKey    string
	CookieSecure      bool
}

// OTPConfig defines completion verification codes.
type OTPConfig struct {
	TTLMinutes        int
	Length            int
	RequestsPerMinute int
}

// NotificationConfig selects and configures the outbound mailer.
type NotificationConfig struct {
	Provider          string
	MailerSendAPIKey  string
	EmailFromName     string
	EmailFrom         string
	SendTimeoutSecond int
}

// EventsConfig selects the event bus that carries notifications.
type EventsConfig struct {
	Backend       string
	NATSURL       string
	SubjectPrefix string
	Workers       int
	BufferSize    int
}

// BootstrapConfig names the first admin account. An empty email skips it.
type BootstrapConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "facility-tickets"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 7*24*60),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 10),
			CookieName:        getEnv("AUTH_COOKIE_NAME", "sessionToken"),
			CookieHashKey:     os.Getenv("AUTH_COOKIE_HASH_KEY"),
			CookieBlockKey:    os.Getenv("AUTH_COOKIE_BLOCK_KEY"),
			CookieSecure:      getEnvAsBool("AUTH_COOKIE_SECURE", false),
		},
		OTP: OTPConfig{
			TTLMinutes:        getEnvAsInt("OTP_TTL_MINUTES", 10),
			Length:            getEnvAsInt("OTP_LENGTH", 6),
			RequestsPerMinute: getEnvAsInt("OTP_REQUESTS_PER_MINUTE", 5),
		},
		Notification: NotificationConfig{
			Provider:          strings.ToLower(getEnv("NOTIFY_PROVIDER", "log")),
			MailerSendAPIKey:  os.Getenv("MAILERSEND_API_KEY"),
			EmailFromName:     getEnv("NOTIFY_EMAIL_FROM_NAME", "Facility Desk"),
			EmailFrom:         getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SendTimeoutSecond: getEnvAsInt("NOTIFY_SEND_TIMEOUT_SECONDS", 10),
		},
		Events: EventsConfig{
			Backend:       strings.ToLower(getEnv("EVENTS_BACKEND", "memory")),
			NATSURL:       getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			SubjectPrefix: getEnv("EVENTS_SUBJECT_PREFIX", "tickets"),
			Workers:       getEnvAsInt("EVENTS_WORKERS", 2),
			BufferSize:    getEnvAsInt("EVENTS_BUFFER_SIZE", 256),
		},
		Bootstrap: BootstrapConfig{
			AdminName:     getEnv("ADMIN_NAME", "Administrator"),
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OTP.Length < 4 || c.OTP.Length > 9 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 9, got %d", c.OTP.Length)
	}
	if c.OTP.TTLMinutes <= 0 {
		return fmt.Errorf("OTP_TTL_MINUTES must be positive")
	}
	switch c.Notification.Provider {
	case "log", "mailersend":
	default:
		return fmt.Errorf("unknown NOTIFY_PROVIDER %q", c.Notification.Provider)
	}
	switch c.Events.Backend {
	case "memory", "nats":
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.Events.Backend)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns how long an issued session stays valid.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// TTL returns the OTP validity window.
func (o OTPConfig) TTL() time.Duration {
	return time.Duration(o.TTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
