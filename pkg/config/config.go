package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Storage
	DBPath    string // SQLite chat history
	IndexPath string // persisted vector index

	// Knowledge corpus
	KnowledgeDir string

	// Gemini — primary remote provider (OpenAI-compatible endpoint)
	GeminiAPIKey     string // process-wide default credential (empty = header required)
	GeminiBaseURL    string
	GeminiChatModel  string
	GeminiEmbedModel string

	// Ollama — local fallback embedder
	OllamaBaseURL    string
	OllamaEmbedModel string

	// Conversation engine
	HistoryWindow  int
	RetrievalTopK  int
	Temperature    float32
	EmbedCacheSize int

	// Frontend
	FrontendURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "8000"),
		AppName: envOrDefault("APP_NAME", "GryBOT"),

		DBPath:    envOrDefault("DB_PATH", "grybot.db"),
		IndexPath: envOrDefault("INDEX_PATH", "data/gryork_index.json"),

		KnowledgeDir: envOrDefault("KNOWLEDGE_DIR", "knowledge_base"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		GeminiChatModel:  envOrDefault("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
		GeminiEmbedModel: envOrDefault("GEMINI_EMBED_MODEL", "text-embedding-004"),

		OllamaBaseURL:    envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaEmbedModel: envOrDefault("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		HistoryWindow:  envOrDefaultInt("HISTORY_WINDOW", 10),
		RetrievalTopK:  envOrDefaultInt("RETRIEVAL_TOP_K", 4),
		Temperature:    envOrDefaultFloat("TEMPERATURE", 0.8),
		EmbedCacheSize: envOrDefaultInt("EMBED_CACHE_SIZE", 5000),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err == nil {
			return float32(f)
		}
	}
	return fallback
}
