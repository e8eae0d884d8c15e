package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/database"
)

// Config holds all configuration for the notification client and the
// development feed server.
type Config struct {
	API      APIConfig
	Stream   StreamConfig
	Keyring  KeyringConfig
	Store    StoreConfig
	Relay    RelayConfig
	Metrics  MetricsConfig
	Log      LogConfig
	Server   ServerConfig
	JWT      JWTConfig
	Database database.PostgresConfig
	Feed     FeedConfig
}

// APIConfig locates the portal REST API
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// StreamConfig selects the push transport and its reconnect policy
type StreamConfig struct {
	Transport    string
	SSEPath      string
	WSPath       string
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// KeyringConfig says where the session token is persisted
type KeyringConfig struct {
	Service string
	Key     string
	FileDir string
}

// StoreConfig tunes the client-side notification store
type StoreConfig struct {
	DedupePush bool
}

// RelayConfig enables republishing pushes on Redis
type RelayConfig struct {
	Enabled bool
	Channel string
	Redis   database.RedisConfig
}

type MetricsConfig struct {
	Addr string
}

type LogConfig struct {
	Level string
	File  string
}

// ServerConfig holds dev feed server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// FeedConfig selects the dev feed server's storage
type FeedConfig struct {
	Storage        string
	MigrationsPath string
	Heartbeat      time.Duration
}

const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		API: APIConfig{
			BaseURL: getEnv("NOTIFY_API_URL", "http://localhost:8000"),
			Token:   getEnv("NOTIFY_TOKEN", ""),
			Timeout: parseDuration(getEnv("NOTIFY_HTTP_TIMEOUT", "15s"), 15*time.Second),
		},
		Stream: StreamConfig{
			Transport:    getEnv("NOTIFY_TRANSPORT", TransportSSE),
			SSEPath:      getEnv("NOTIFY_STREAM_PATH", "/api/student/notifications/stream"),
			WSPath:       getEnv("NOTIFY_WS_PATH", "/ws"),
			InitialDelay: parseDuration(getEnv("NOTIFY_RECONNECT_INITIAL", "3s"), 3*time.Second),
			MaxDelay:     parseDuration(getEnv("NOTIFY_RECONNECT_MAX", "30s"), 30*time.Second),
			Multiplier:   parseFloat(getEnv("NOTIFY_RECONNECT_MULTIPLIER", "1.5"), 1.5),
		},
		Keyring: KeyringConfig{
			Service: getEnv("NOTIFY_KEYRING_SERVICE", "portal-notify"),
			Key:     getEnv("NOTIFY_KEYRING_KEY", "auth_token"),
			FileDir: getEnv("NOTIFY_KEYRING_DIR", defaultKeyringDir()),
		},
		Store: StoreConfig{
			DedupePush: parseBool(getEnv("NOTIFY_DEDUPE_PUSH", "false"), false),
		},
		Relay: RelayConfig{
			Enabled: parseBool(getEnv("NOTIFY_RELAY_ENABLED", "false"), false),
			Channel: getEnv("NOTIFY_RELAY_CHANNEL", "portal:notifications"),
			Redis: database.RedisConfig{
				Host:     getEnv("REDIS_HOST", "localhost"),
				Port:     getEnv("REDIS_PORT", "6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			},
		},
		Metrics: MetricsConfig{
			Addr: getEnv("NOTIFY_METRICS_ADDR", ""),
		},
		Log: LogConfig{
			Level: getEnv("NOTIFY_LOG_LEVEL", "info"),
			File:  getEnv("NOTIFY_LOG_FILE", ""),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8000"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-dev-secret"),
			Expiry: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "portal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Feed: FeedConfig{
			Storage:        getEnv("FEED_STORAGE", StorageMemory),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
			Heartbeat:      parseDuration(getEnv("FEED_HEARTBEAT", "30s"), 30*time.Second),
		},
	}
}

func defaultKeyringDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".portal-notify")
	}
	return filepath.Join(dir, "portal-notify", "credentials")
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func parseFloat(value string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}

func parseBool(value string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}
