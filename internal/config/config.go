package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Pipeline  PipelineConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaEmbedModel  string
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string // e.g. "llama3", "gemini-2.0-flash"
	GeminiAPIKey      string
	MaxInflightCalls  int64 // process-wide cap on concurrent LLM calls
	CallTimeout       time.Duration
}

type PipelineConfig struct {
	RequestDeadline    time.Duration
	AnalysisTimeout    time.Duration
	SelectionThreshold float64 // tool classification confidence floor
	TopN               int     // max candidates in the final answer
	EarlySendScore     int     // stream a candidate immediately above this score
	ScoreFloor         int     // drop candidates at or below this score
	QueryFanout        bool    // rewrite into keyword sub-queries before retrieval
}

type RetrievalConfig struct {
	BackendTimeout      time.Duration
	PerBackendK         int
	CacheTTL            time.Duration
	MaxInflight         int64   // process-wide cap on concurrent backend queries
	SimilarityThreshold float64 // minimum cosine similarity for vector hits
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/asksite.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			MaxInflightCalls:  int64(getEnvAsInt("LLM_MAX_INFLIGHT", 32)),
			CallTimeout:       getEnvAsDuration("LLM_CALL_TIMEOUT", 20*time.Second),
		},
		Pipeline: PipelineConfig{
			RequestDeadline:    getEnvAsDuration("ASK_REQUEST_DEADLINE", 60*time.Second),
			AnalysisTimeout:    getEnvAsDuration("ASK_ANALYSIS_TIMEOUT", 8*time.Second),
			SelectionThreshold: getEnvAsFloat("ASK_SELECTION_THRESHOLD", 0.7),
			TopN:               getEnvAsInt("ASK_TOP_N", 10),
			EarlySendScore:     getEnvAsInt("ASK_EARLY_SEND_SCORE", 59),
			ScoreFloor:         getEnvAsInt("ASK_SCORE_FLOOR", 50),
			QueryFanout:        getEnvAsBool("ASK_QUERY_FANOUT", false),
		},
		Retrieval: RetrievalConfig{
			BackendTimeout:      getEnvAsDuration("RETRIEVAL_BACKEND_TIMEOUT", 10*time.Second),
			PerBackendK:         getEnvAsInt("RETRIEVAL_PER_BACKEND_K", 20),
			CacheTTL:            getEnvAsDuration("RETRIEVAL_CACHE_TTL", 5*time.Minute),
			MaxInflight:         int64(getEnvAsInt("RETRIEVAL_MAX_INFLIGHT", 64)),
			SimilarityThreshold: getEnvAsFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
