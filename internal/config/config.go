package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	Port    string
	GinMode string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	SessionSecret string
	SessionStore  string
	RedisAddr     string
	RedisPassword string

	ResetTokenStore string
	ResetURLBase    string
	UploadsDir      string

	ExternalAuthSecret        string
	ExternalAuthPublicKeyFile string
	ExternalAuthIssuer        string
	ExternalAuthAudience      string

	CORSAllowedOrigins []string
	TrustedProxies     []string
	RateLimitPerMinute int

	OpenAIAPIKey       string
	AgendaFeedURL      string
	AgendaAutoCron     string
	AgendaAutoAssignee string

	KafkaBrokers       []string
	KafkaActivityTopic string

	FrontendDist    string
	OTELServiceName string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not read .env: %v", err)
	}

	return &Config{
		AppEnv:  getEnv("APP_ENV", "production"),
		Port:    getEnv("PORT", "3001"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "data/database.sqlite"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "taskuser"),
		DBPassword: getEnv("DB_PASSWORD", "taskpassword"),
		DBName:     getEnv("DB_NAME", "tax_tasks"),

		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SessionStore:  getEnv("SESSION_STORE", "cookie"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ResetTokenStore: getEnv("RESET_TOKEN_STORE", "database"),
		ResetURLBase:    getEnv("RESET_URL_BASE", "http://localhost:5173/reset-password"),
		UploadsDir:      getEnv("UPLOADS_DIR", "uploads"),

		ExternalAuthSecret:        getEnv("EXTERNAL_AUTH_HS256_SECRET", ""),
		ExternalAuthPublicKeyFile: getEnv("EXTERNAL_AUTH_RS256_PUBLIC_KEY_FILE", ""),
		ExternalAuthIssuer:        getEnv("EXTERNAL_AUTH_ISSUER", ""),
		ExternalAuthAudience:      getEnv("EXTERNAL_AUTH_AUDIENCE", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		AgendaFeedURL:      getEnv("AGENDA_FEED_URL", ""),
		AgendaAutoCron:     getEnv("AGENDA_AUTO_CRON", ""),
		AgendaAutoAssignee: getEnv("AGENDA_AUTO_ASSIGNEE", ""),

		KafkaBrokers:       getEnvList("KAFKA_BROKERS", ""),
		KafkaActivityTopic: getEnv("KAFKA_ACTIVITY_TOPIC", "task-activity"),

		FrontendDist:    getEnv("FRONTEND_DIST", ""),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "tax-task-tracker"),
	}
}

// IsDevelopment reports whether reset tokens may be echoed back to callers.
// It must be opted into with APP_ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
