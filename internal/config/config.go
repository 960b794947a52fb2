package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	Env        string
	LogLevel   string
	AppVersion string

	GeminiAPIKey        string
	GeminiModel         string
	GeminiFallbackModel string
	JudgeModel          string
	EmbeddingModel      string
	EmbeddingDim        int
	AITimeout           time.Duration

	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseAnonKey        string
	SupabaseJWTSecret      string

	DatabaseURL       string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnLifetime time.Duration

	RedisAddr        string
	IdentityCacheTTL time.Duration

	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	ChatCacheTTL     time.Duration

	StrictErrorStatus bool

	// CLI
	APIURL      string
	SessionFile string
}

// LoadDotEnv loads the first env file found; the process environment wins.
func LoadDotEnv(files ...string) (string, bool) {
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			return f, true
		}
	}
	return "", false
}

func Load() Config {
	return Config{
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("APP_ENV", "local"),
		LogLevel:   getEnv("LOG_LEVEL", ""),
		AppVersion: getEnv("APP_VERSION", "dev"),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiFallbackModel: getEnv("GEMINI_FALLBACK_MODEL", ""),
		JudgeModel:          getEnv("GEMINI_JUDGE_MODEL", "gemini-2.0-flash-lite"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDim:        getEnvInt("EMBEDDING_DIM", 768),
		AITimeout:           getEnvDuration("AI_TIMEOUT", 25*time.Second),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMinConns:        int32(getEnvInt("DB_MIN_CONNS", 1)),
		DBMaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		IdentityCacheTTL: getEnvDuration("IDENTITY_CACHE_TTL", time.Minute),

		QdrantHost:       getEnv("QDRANT_HOST", ""),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "cibil_chat_cache"),
		ChatCacheTTL:     getEnvDuration("CHAT_CACHE_TTL", 24*time.Hour),

		StrictErrorStatus: getEnvBool("STRICT_ERROR_STATUS", false),

		APIURL:      getEnv("CIBIL_API_URL", "http://localhost:8080"),
		SessionFile: getEnv("CIBIL_SESSION_FILE", ""),
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// MissingPredictionSettings lists the required prediction settings that are
// absent: the AI key, the data-store URL and the privileged data-store key.
func (c Config) MissingPredictionSettings() []string {
	var missing []string
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.SupabaseServiceRoleKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	return missing
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		n := strings.ToLower(strings.TrimSpace(v))
		return n == "1" || n == "true" || n == "yes"
	}
	return fallback
}
