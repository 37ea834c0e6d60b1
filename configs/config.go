package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// 対応しているテキスト生成プロバイダー
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds the application configuration
type Config struct {
	Port        string
	Environment string

	LLMProvider   string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	DBPath        string
	APIKey        string
	AdminUsername string
	AdminPassword string

	SampleData     bool
	SampleDataDays int
	SampleDataSeed int64
	SampleDataCron string

	GenerationConfigPath string
	LogFormat            string
	LogLevel             string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		DBPath:        getEnv("DB_PATH", ":memory:"),
		APIKey:        getEnv("API_KEY", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		SampleData:     getEnvBool("SAMPLE_DATA", true),
		SampleDataDays: getEnvInt("SAMPLE_DATA_DAYS", 7),
		SampleDataSeed: int64(getEnvInt("SAMPLE_DATA_SEED", 0)),
		SampleDataCron: getEnv("SAMPLE_DATA_CRON", ""),

		GenerationConfigPath: getEnv("GENERATION_CONFIG_PATH", "configs/generation.yaml"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}

// Validate 起動に必要な設定が揃っているか検証
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY環境変数が設定されていません")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY環境変数が設定されていません")
		}
	default:
		return fmt.Errorf("LLM_PROVIDERが不正です: %q (gemini または openai)", c.LLMProvider)
	}
	if c.SampleDataDays <= 0 {
		return fmt.Errorf("SAMPLE_DATA_DAYSは1以上である必要があります: %d", c.SampleDataDays)
	}
	return nil
}

// IsProduction 本番環境かどうか
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
