package config

import (
	"ai-nexus/internal/logger"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Auth     AuthConfig
	Credits  CreditsConfig
	Models   *ModelsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver         string // "postgres" or "memory"
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrationsPath string
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider                   string // "openrouter" or "genkit"
	Endpoint                   string
	OpenRouterAPIKey           string
	Referer                    string
	AppTitle                   string
	ChatTimeout                time.Duration
	AnalysisTimeout            time.Duration
	ExpertSystemPrompt         string
	PromptAnalysisModel        string
	PromptAnalysisSystemPrompt string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration
}

// CreditsConfig holds the credit grants applied to accounts
type CreditsConfig struct {
	SignupCredits int
	UpgradeBonus  int
}

const defaultExpertSystemPrompt = "You are an expert consultant. Provide deep technical insights, critical analysis, and detailed explanations. Focus on accuracy and nuance."

const defaultPromptAnalysisSystemPrompt = "You are an expert Prompt Engineer. Analyze the user's prompt. " +
	"Return ONLY a JSON object with strictly these keys: " +
	"'score' (integer 1-10), 'critique' (string, max 100 chars), " +
	"'optimizedPrompt' (string, rewrite the prompt to be professional, clear and detailed), " +
	"'canImprove' (boolean)."

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	config := &AppConfig{}

	config.Server = ServerConfig{
		Port:        getEnvOrDefault("SERVER_PORT", "8080"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	config.Database = DatabaseConfig{
		Driver:         getEnvOrDefault("DB_DRIVER", "postgres"),
		Host:           getEnvOrDefault("DB_HOST", "postgres"),
		Port:           getEnvOrDefault("DB_PORT", "5432"),
		User:           getEnvOrDefault("DB_USER", "postgres"),
		Password:       getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:           getEnvOrDefault("DB_NAME", "ainexus"),
		SSLMode:        getEnvOrDefault("DB_SSLMODE", "disable"),
		MigrationsPath: getEnvOrDefault("DB_MIGRATIONS_PATH", "file://migrations"),
	}
	if config.Database.Driver != "postgres" && config.Database.Driver != "memory" {
		return nil, fmt.Errorf("DB_DRIVER must be 'postgres' or 'memory', got %q", config.Database.Driver)
	}

	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		logger.Log.Warn("OPENROUTER_API_KEY environment variable not set")
	}

	config.LLM = LLMConfig{
		Provider:                   getEnvOrDefault("LLM_PROVIDER", "openrouter"),
		Endpoint:                   getEnvOrDefault("OPENROUTER_ENDPOINT", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterAPIKey:           apiKey,
		Referer:                    getEnvOrDefault("OPENROUTER_REFERER", config.Server.FrontendURL),
		AppTitle:                   getEnvOrDefault("OPENROUTER_APP_TITLE", "AI Nexus"),
		ChatTimeout:                getEnvAsDuration("LLM_CHAT_TIMEOUT", 60*time.Second),
		AnalysisTimeout:            getEnvAsDuration("LLM_ANALYSIS_TIMEOUT", 15*time.Second),
		ExpertSystemPrompt:         getEnvOrDefault("EXPERT_SYSTEM_PROMPT", defaultExpertSystemPrompt),
		PromptAnalysisModel:        getEnvOrDefault("PROMPT_ANALYSIS_MODEL", "gemini"),
		PromptAnalysisSystemPrompt: defaultPromptAnalysisSystemPrompt,
	}
	if config.LLM.Provider != "openrouter" && config.LLM.Provider != "genkit" {
		return nil, fmt.Errorf("LLM_PROVIDER must be 'openrouter' or 'genkit', got %q", config.LLM.Provider)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters (current length: %d)", len(jwtSecret))
	}

	config.Auth = AuthConfig{
		JWTSecret:       []byte(jwtSecret),
		TokenExpiration: getEnvAsDuration("JWT_TOKEN_EXPIRATION", 24*time.Hour),
	}

	config.Credits = CreditsConfig{
		SignupCredits: getEnvAsInt("SIGNUP_CREDITS", 300),
		UpgradeBonus:  getEnvAsInt("UPGRADE_BONUS_CREDITS", 500),
	}

	modelsConfigPath := getEnvOrDefault("MODELS_CONFIG_PATH", filepath.Join("config", "models.json"))
	modelsConfig, err := NewModelsConfig(modelsConfigPath, apiKey)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Log.WithField("path", modelsConfigPath).Warn("Models config not found, using built-in catalogue")
		modelsConfig, err = NewModelsConfigFromList(DefaultModels, apiKey), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load models config: %w", err)
	}
	config.Models = modelsConfig

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}
