package config

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MinSessionSecretLength is the minimum required length for session secret in production
	MinSessionSecretLength = 32
)

// Database drivers supported by the persistence gateway
const (
	DBDriverSQLite   = "sqlite"
	DBDriverLibSQL   = "libsql"
	DBDriverPostgres = "postgres"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string
	UploadDir   string
	AppURL      string
	// Database
	DBDriver         string
	DBPath           string
	DatabaseURL      string // Postgres DSN
	TursoDatabaseURL string
	TursoAuthToken   string
	// Auth
	SessionSecret string
	WebhookSecret string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent
	// Cloudflare R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
	// PDF
	ChromePath string
	// Jobs
	NotifyLookaheadDays int
	NotifySchedule      string
	SummarySchedule     string
	Timezone            string
	// Order ingestion
	OrderSyncEnabled      bool
	OrderMappingFile      string
	OrderDefaultServiceID string
	OrderDefaultLawyerID  string
	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")
	sessionSecret := getEnv("SESSION_SECRET", "")

	ValidateSessionSecret(sessionSecret, environment)

	if sessionSecret == "" && environment != "production" {
		sessionSecret = GenerateSecureSecret()
		log.Println("[INFO] Generated temporary session secret for development. Set SESSION_SECRET env var for persistence.")
	}

	return &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		Environment:           environment,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		UploadDir:             getEnv("UPLOAD_DIR", "static/uploads"),
		AppURL:                getEnv("APP_URL", "http://localhost:8080"),
		DBDriver:              getEnv("DB_DRIVER", DBDriverSQLite),
		DBPath:                getEnv("DB_PATH", "db/crm.db"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		TursoDatabaseURL:      getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:        getEnv("TURSO_AUTH_TOKEN", ""),
		SessionSecret:         sessionSecret,
		WebhookSecret:         getEnv("WEBHOOK_SECRET", ""),
		ResendAPIKey:          getEnv("RESEND_API_KEY", ""),
		EmailFrom:             getEnv("EMAIL_FROM", "avisos@despacho-extranjeria.es"),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Despacho Extranjería"),
		EmailTestMode:         getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		R2AccountID:           getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:         getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:     getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:          getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:           getEnv("R2_PUBLIC_URL", ""),
		ChromePath:            getEnv("CHROME_PATH", ""),
		NotifyLookaheadDays:   getEnvInt("NOTIFY_LOOKAHEAD_DAYS", 3),
		NotifySchedule:        getEnv("NOTIFY_SCHEDULE", "@hourly"),
		SummarySchedule:       getEnv("SUMMARY_SCHEDULE", "@daily"),
		Timezone:              getEnv("TIMEZONE", "Europe/Madrid"),
		OrderSyncEnabled:      getEnvBool("ORDER_SYNC_ENABLED", false),
		OrderMappingFile:      getEnv("ORDER_MAPPING_FILE", ""),
		OrderDefaultServiceID: getEnv("ORDER_DEFAULT_SERVICE_ID", ""),
		OrderDefaultLawyerID:  getEnv("ORDER_DEFAULT_LAWYER_ID", ""),
		RateLimitRPS:          getEnvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst:        getEnvInt("RATE_LIMIT_BURST", 40),
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARNING] Invalid integer for %s (%q), using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// ValidateSessionSecret validates the session secret meets security requirements
// In production, it must be at least 32 bytes and not a known insecure default
func ValidateSessionSecret(secret string, environment string) error {
	insecureDefaults := []string{
		"dev-secret-change-in-production",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				log.Fatal("[CRITICAL] SESSION_SECRET is set to an insecure default value. Generate a secure random secret with: openssl rand -base64 32")
			}
			return nil
		}
	}

	if environment == "production" && len(secret) < MinSessionSecretLength {
		log.Fatalf("[CRITICAL] SESSION_SECRET must be at least %d characters in production (current: %d)", MinSessionSecretLength, len(secret))
	}

	return nil
}

// GenerateSecureSecret generates a cryptographically secure random secret
// This is used only for development when no secret is provided
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("[WARNING] Failed to generate secure secret: %v", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
