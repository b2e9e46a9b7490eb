package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort           string
	AppEnv            string
	AWSRegion         string
	AWSEndpointURL    string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID    string
	AWSSecretKey      string
	DynamoTables      DynamoTables
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	SMTPHost          string
	SMTPPort          string
	SMTPFrom          string
	SMTPUsername      string
	SMTPPassword      string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	OtpIssueLimit     int
	OtpIssueWindow    time.Duration
	TMDBBaseURL       string
	TMDBImageBaseURL  string
	TMDBReadToken     string
	LiveDebounce      time.Duration
	AllowedOrigins    []string // CORS allowed origins
	TrustProxy        bool     // honour X-Forwarded-For / X-Real-Ip from a fronting proxy
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users     string
	AuthCodes string
	Watchlist string
	Watched   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:     getEnv("DYNAMO_TABLE_USERS", "users"),
			AuthCodes: getEnv("DYNAMO_TABLE_AUTH_CODES", "auth_codes"),
			Watchlist: getEnv("DYNAMO_TABLE_WATCHLIST", "watchlist"),
			Watched:   getEnv("DYNAMO_TABLE_WATCHED", "watched"),
		},
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24*30)) * time.Hour,
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPFrom:          getEnv("SMTP_FROM", "EntHub <onboarding@enthub.local>"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		OtpIssueLimit:     getEnvInt("OTP_ISSUE_LIMIT", 5),
		OtpIssueWindow:    time.Duration(getEnvInt("OTP_ISSUE_WINDOW_MINUTES", 10)) * time.Minute,
		TMDBBaseURL:       getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL:  getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
		TMDBReadToken:     getEnv("TMDB_READ_TOKEN", ""),
		LiveDebounce:      time.Duration(getEnvInt("LIVE_DEBOUNCE_MS", 100)) * time.Millisecond,
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxy:        getEnv("TRUST_PROXY", "false") == "true",
	}
}

// MailConfigured reports whether a real email credential is present.
// Placeholder values left over from example env files count as absent.
func (c *Config) MailConfigured() bool {
	if c.SMTPHost == "" || c.SMTPPassword == "" {
		return false
	}
	return !strings.Contains(c.SMTPPassword, "replace_me")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
