package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	AppName string
	AppURL  string
	Port    string

	DBDriver   string // postgres, mysql, sqlite
	DBDSN      string // full DSN, overrides the parts below
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTKey      string
	JWTTTLHours int
	SaltRound   int

	LogLevel  string
	LogFormat string // text, json

	CorsOrigins string

	MailProvider    string // sendgrid, log
	SendgridAPIKey  string
	EmailSender     string
	EmailSenderName string

	WhatsAppAPIURL   string
	WhatsAppAPIToken string

	MidtransServerKey  string
	MidtransProduction bool

	SchedulerEnabled bool
	ReconcileCron    string
	BroadcastCron    string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.MailProvider == "sendgrid" && AppConfig.SendgridAPIKey == "" {
		log.Println("Warning: MAIL_PROVIDER is sendgrid but SENDGRID_API_KEY is empty.")
	}
}

// FromEnv builds a Config from the current process environment.
func FromEnv() *Config {
	return &Config{
		AppName: getEnv("APP_NAME", "Garuda Academy"),
		AppURL:  getEnv("APP_URL", "http://localhost:3000"),
		Port:    getEnv("PORT", "3000"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:      getEnv("DB_DSN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "garuda"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTKey:      getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		SaltRound:   getEnvInt("SALT_ROUND", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		CorsOrigins: getEnv("CORS_ORIGINS", "*"),

		MailProvider:    strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
		SendgridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", "no-reply@garuda.academy"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "Garuda Academy"),

		WhatsAppAPIURL:   getEnv("WHATSAPP_API_URL", ""),
		WhatsAppAPIToken: getEnv("WHATSAPP_API_TOKEN", ""),

		MidtransServerKey:  getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransProduction: getEnvBool("MIDTRANS_PRODUCTION", false),

		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
		ReconcileCron:    getEnv("RECONCILE_CRON", "0 2 * * *"),
		BroadcastCron:    getEnv("BROADCAST_CRON", "*/5 * * * *"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}
