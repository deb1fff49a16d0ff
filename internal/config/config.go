package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Research ResearchConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	Anthropic    string
	BraveSearch  string
	GoogleGemini string
	Jina         string
	ReportTopic  string // Completed-report topic name
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "anthropic" or "ollama"
	LLMModel          string
}

// ResearchConfig carries the tunable knobs of the research engine. The
// heuristics here (thresholds, keyword lists) are deliberately configuration,
// not hard-coded policy.
type ResearchConfig struct {
	MaxRecursionDepth  int // default depth ceiling, hard cap 4
	MaxSubQuestions    int // default branch width, hard cap 5
	RecursionThreshold int // 0..2, higher = more conservative decomposition

	ChunkSize           int
	ChunkOverlap        int
	TopKResults         int
	SimilarityThreshold float64 // cosine distance cutoff, lower = more similar

	SearchResultCount int

	AnswerMaxTokens     int
	EvaluationMaxTokens int
	SynthesisMaxTokens  int

	ChildConcurrency int

	// Questions matching one of these keywords tolerate a single validated
	// sub-question instead of the usual minimum of two.
	SingleSubQuestionKeywords []string
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			BraveSearch:  getEnv("BRAVE_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			ReportTopic:  getEnv("RESEARCH_REPORT_TOPIC_NAME", "RESEARCH_REPORT_COMPLETED"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "anthropic"),
			LLMModel:          getEnv("LLM_MODEL", "claude-3-haiku-20240307"),
		},
		Research: ResearchConfig{
			MaxRecursionDepth:   getEnvAsInt("RESEARCH_MAX_RECURSION_DEPTH", 2),
			MaxSubQuestions:     getEnvAsInt("RESEARCH_MAX_SUB_QUESTIONS", 3),
			RecursionThreshold:  getEnvAsInt("RESEARCH_RECURSION_THRESHOLD", 1),
			ChunkSize:           getEnvAsInt("RESEARCH_CHUNK_SIZE", 1000),
			ChunkOverlap:        getEnvAsInt("RESEARCH_CHUNK_OVERLAP", 200),
			TopKResults:         getEnvAsInt("RESEARCH_TOP_K_RESULTS", 5),
			SimilarityThreshold: getEnvAsFloat("RESEARCH_SIMILARITY_THRESHOLD", 0.75),
			SearchResultCount:   getEnvAsInt("RESEARCH_SEARCH_RESULT_COUNT", 3),
			AnswerMaxTokens:     getEnvAsInt("RESEARCH_ANSWER_MAX_TOKENS", 800),
			EvaluationMaxTokens: getEnvAsInt("RESEARCH_EVALUATION_MAX_TOKENS", 600),
			SynthesisMaxTokens:  getEnvAsInt("RESEARCH_SYNTHESIS_MAX_TOKENS", 1500),
			ChildConcurrency:    getEnvAsInt("RESEARCH_CHILD_CONCURRENCY", 3),
			SingleSubQuestionKeywords: getEnvAsSlice("RESEARCH_SINGLE_SUBQ_KEYWORDS",
				[]string{"impact", "impacts", "trend", "trends", "comparison", "compare", "versus", "vs"}),
		},
	}
}

// Validate fails fast on configuration that would corrupt the retrieval store.
func (c *Config) Validate() error {
	r := c.Research
	if r.ChunkOverlap <= 0 {
		return fmt.Errorf("invalid research config: chunk overlap must be positive, got %d", r.ChunkOverlap)
	}
	if r.ChunkSize <= r.ChunkOverlap {
		return fmt.Errorf("invalid research config: chunk size (%d) must be greater than chunk overlap (%d)", r.ChunkSize, r.ChunkOverlap)
	}
	if r.TopKResults <= 0 {
		return fmt.Errorf("invalid research config: top-k must be positive, got %d", r.TopKResults)
	}
	if r.SimilarityThreshold <= 0 {
		return fmt.Errorf("invalid research config: similarity threshold must be positive, got %f", r.SimilarityThreshold)
	}
	return nil
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

func getEnvAsSlice(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
