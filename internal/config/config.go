package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Stripe   StripeConfig
	Clerk    ClerkConfig
	Auth     AuthConfig
	Upload   UploadConfig
	CORS     CORSConfig
	Log      LogConfig
	Ticket   TicketConfig
	AppURL   string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	DSN             string
	ConnectAttempts int
	RetryDelay      time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	MaxLifetime     time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr              string
	Enabled           bool
	RevalidateChannel string
	SessionLockTTL    time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	Enabled     bool
	TopicPrefix string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type ClerkConfig struct {
	WebhookSecret string
}

type AuthConfig struct {
	OIDCIssuer string
	// DevSecret enables HS256 bearer tokens when no issuer is configured.
	DevSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type UploadConfig struct {
	AllowedHosts []string
}

type TicketConfig struct {
	QRSecret string
}

type LogConfig struct {
	Dir   string
	Level string
}

var defaultUploadHosts = "utfs.io,sea1.ingest.uploadthing.com,yfg7y7pev1.ufs.sh"

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SECONDS", 15)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SECONDS", 15)) * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			DSN:             os.Getenv("DATABASE_URL"),
			ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
			RetryDelay:      2 * time.Second,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:     time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:              getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled:           getEnvBool("REDIS_ENABLED", true),
			RevalidateChannel: getEnv("REVALIDATE_CHANNEL", "eventhub.revalidate"),
			SessionLockTTL:    time.Duration(getEnvInt("SESSION_LOCK_TTL_SECONDS", 120)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvList("KAFKA_BROKERS", "localhost:9092"),
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
			TopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "eventhub"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Currency:      getEnv("STRIPE_CURRENCY", "usd"),
		},
		Clerk: ClerkConfig{
			WebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			OIDCIssuer: os.Getenv("OIDC_ISSUER"),
			DevSecret:  os.Getenv("AUTH_DEV_SECRET"),
		},
		Upload: UploadConfig{
			AllowedHosts: getEnvList("UPLOAD_ALLOWED_HOSTS", defaultUploadHosts),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", getEnv("APP_URL", "http://localhost:3000")),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Ticket: TicketConfig{
			QRSecret: getEnv("TICKET_QR_SECRET", "dev-ticket-secret"),
		},
		AppURL: strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
