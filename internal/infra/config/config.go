package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env        string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	AnnURL         string
	AnnTimeoutMS   int
	EmbedURL       string
	EmbedModel     string
	EmbedTimeoutMS int

	MeiliHost    string
	MeiliAPIKey  string
	MeiliIndex   string
	MeiliEnabled bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WorkerTimeoutMS int
	PerCorpusLimit  int
	DefaultLocale   string
	OTelEnabled     bool
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		DBHost:     getEnv("DB_HOST", "lex-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "lex_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "lex_password"),
		DBName:     getEnv("DB_NAME", "lex_db"),

		AnnURL:         getEnv("ANN_SERVICE_URL", "http://ann-service:8321"),
		AnnTimeoutMS:   getEnvInt("ANN_TIMEOUT_MS", 3000),
		EmbedURL:       getEnvWithAlt("EMBED_SERVICE_URL", "OLLAMA_URL", "http://embedder:11434"),
		EmbedModel:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbedTimeoutMS: getEnvInt("EMBED_TIMEOUT_MS", 10000),

		MeiliHost:    getEnv("MEILISEARCH_HOST", "http://meilisearch:7700"),
		MeiliAPIKey:  getSecret("MEILISEARCH_API_KEY", "MEILI_MASTER_KEY_FILE", ""),
		MeiliIndex:   getEnv("MEILISEARCH_INDEX", "passages"),
		MeiliEnabled: getEnvBool("MEILISEARCH_ENABLED", false),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getSecret("REDIS_PASSWORD", "REDIS_PASSWORD_FILE", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		WorkerTimeoutMS: getEnvInt("RETRIEVAL_WORKER_TIMEOUT_MS", 8000),
		PerCorpusLimit:  getEnvInt("RETRIEVAL_PER_CORPUS_LIMIT", 15),
		DefaultLocale:   getEnv("RETRIEVAL_DEFAULT_LOCALE", "nl"),
		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
