package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBoolEnv returns a bool environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type OTPConfig struct {
	TTL                time.Duration
	InvalidatePrevious bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	PublicURL string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// Config aggregates everything cmd/server needs to wire the application.
type Config struct {
	Port            string
	CORSOrigins     string
	RequestTimeout  time.Duration
	ExternalTimeout time.Duration
	ListingLifetime time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	OTP      OTPConfig
	SMTP     SMTPConfig
	S3       S3Config
	Stripe   StripeConfig
	RabbitMQ RabbitMQConfig
}

// Load reads the configuration from the environment. Call LoadEnv first to pick up a .env file.
func Load() *Config {
	return &Config{
		Port:            GetEnv("PORT", "3000"),
		CORSOrigins:     GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		RequestTimeout:  GetDurationEnv("REQUEST_TIMEOUT", 15*time.Second),
		ExternalTimeout: GetDurationEnv("EXTERNAL_TIMEOUT", 10*time.Second),
		ListingLifetime: GetDurationEnv("LISTING_LIFETIME", 90*24*time.Hour),
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "pronat"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:       GetEnv("JWT_SECRET", ""),
			RefreshSecret:   GetEnv("REFRESH_SECRET", ""),
			AccessTokenTTL:  GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		OTP: OTPConfig{
			TTL:                GetDurationEnv("OTP_TTL", 10*time.Minute),
			InvalidatePrevious: GetBoolEnv("OTP_INVALIDATE_PREVIOUS", false),
		},
		SMTP: SMTPConfig{
			Host:     GetEnv("SMTP_HOST", "localhost"),
			Port:     GetIntEnv("SMTP_PORT", 587),
			Username: GetEnv("SMTP_USERNAME", ""),
			Password: GetEnv("SMTP_PASSWORD", ""),
			From:     GetEnv("MAIL_FROM", "no-reply@pronat.al"),
			FromName: GetEnv("MAIL_FROM_NAME", "Pronat"),
		},
		S3: S3Config{
			Region:    GetEnv("S3_REGION", "eu-central-1"),
			Bucket:    GetEnv("S3_BUCKET", "pronat-media"),
			AccessKey: GetEnv("S3_ACCESS_KEY", ""),
			SecretKey: GetEnv("S3_SECRET_KEY", ""),
			Endpoint:  GetEnv("S3_ENDPOINT", ""),
			PublicURL: strings.TrimRight(GetEnv("S3_PUBLIC_URL", ""), "/"),
		},
		Stripe: StripeConfig{
			SecretKey:     GetEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: GetEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:    GetEnv("CHECKOUT_SUCCESS_URL", "http://localhost:5173/checkout/success"),
			CancelURL:     GetEnv("CHECKOUT_CANCEL_URL", "http://localhost:5173/checkout/cancel"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      GetEnv("RABBITMQ_URL", ""),
			Exchange: GetEnv("RABBITMQ_EXCHANGE", "pronat.events"),
		},
	}
}
