// ABOUTME: Centralized configuration for the documentation chat service
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the docchat system
type Config struct {
	// Corpus and storage settings
	DocsPath   string
	ChromaURL  string
	Collection string
	ChatDBPath string

	// OpenAI / Groq settings
	OpenAIKey      string
	GroqKey        string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Chunking settings
	ChunkSize     int // sliding-window size in words
	ChunkOverlap  int // sliding-window overlap in words
	MinChunkChars int // discard normalized chunks shorter than this

	// Retrieval and chat settings
	TopKResults        int
	MaxHistoryMessages int
	EnableChatHistory  bool

	// Server settings
	HTTPAddr  string
	WatchDocs bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DocsPath:           getEnv("DOCS_PATH", "./docs"),
		ChromaURL:          getEnv("CHROMA_URL", "http://localhost:8000"),
		Collection:         getEnv("CHROMA_COLLECTION", "documentation"),
		ChatDBPath:         getEnv("CHAT_DB_PATH", "./chat_history.db"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		GroqKey:            os.Getenv("GROQ_API_KEY"),
		ChatModel:          getEnv("DOCCHAT_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:     getEnv("DOCCHAT_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:            getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:         getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:         getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 100),
		MinChunkChars:      getEnvInt("MIN_CHUNK_CHARS", 50),
		TopKResults:        getEnvInt("TOP_K_RESULTS", 5),
		MaxHistoryMessages: getEnvInt("MAX_HISTORY_MESSAGES", 10),
		EnableChatHistory:  getEnvBool("ENABLE_CHAT_HISTORY", true),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		WatchDocs:          getEnvBool("WATCH_DOCS", false),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.MinChunkChars < 0 {
		return fmt.Errorf("MIN_CHUNK_CHARS must be non-negative, got %d", c.MinChunkChars)
	}
	if c.TopKResults <= 0 {
		return fmt.Errorf("TOP_K_RESULTS must be positive, got %d", c.TopKResults)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
