package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  int
	LogLevel    string
	CORSOrigins []string

	DatabaseURL string
	DBDriver    string

	JWTSecret     []byte
	SessionSecret []byte
	AccessTTL     time.Duration
	SessionTTL    time.Duration
	CookieSecure  bool

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string
	UploadDir   string

	PostalAPIURL     string
	ChatBaseURL      string
	MessageMaxLength int
	Timezone         string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		CORSOrigins: CSV(EnvDefault("CORS_ORIGINS", "*")),

		DatabaseURL: databaseURL(),
		DBDriver:    EnvDefault("DB_DRIVER", "pgx"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),
		AccessTTL:     time.Duration(EnvIntDefault("ACCESS_TTL_MINUTES", 480)) * time.Minute,
		SessionTTL:    time.Duration(EnvIntDefault("SESSION_TTL_HOURS", 72)) * time.Hour,
		CookieSecure:  EnvDefault("COOKIE_SECURE", "true") == "true",

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    EnvDefault("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
		UploadDir:   EnvDefault("UPLOAD_DIR", "./uploads"),

		PostalAPIURL:     EnvDefault("POSTAL_API_URL", "https://viacep.com.br/ws/"),
		ChatBaseURL:      EnvDefault("CHAT_BASE_URL", "https://wa.me/"),
		MessageMaxLength: EnvIntDefault("MESSAGE_MAX_LENGTH", 200),
		Timezone:         EnvDefault("SHOP_TIMEZONE", "America/Sao_Paulo"),
	}
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* parts.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), host,
		EnvDefault("DB_PORT", "5432"), os.Getenv("DB_NAME"), EnvDefault("DB_SSLMODE", "disable"),
	)
}

// Validate stops the process when a required secret is missing.
func (c *Config) Validate() {
	MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(c.JWTSecret, "JWT_SECRET")
	MustNonEmptyBytes(c.SessionSecret, "SESSION_SECRET")
}

// Location is the shop's time zone, used to decide which calendar day "today" is.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("SHOP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CORSCredentials reports whether browsers may send cookies cross-origin. A
// wildcard origin never gets credentials; such clients send the session and
// access tokens in headers instead.
func (c *Config) CORSCredentials() bool {
	return len(c.CORSOrigins) > 0 && !slices.Contains(c.CORSOrigins, "*")
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
