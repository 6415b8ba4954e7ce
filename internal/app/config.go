package app

import (
	"ai-nexus/internal/config"
	"ai-nexus/internal/conversation"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/service/llm"
	"ai-nexus/internal/telemetry"
)

// Config holds all application dependencies and configuration
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// Centralized application configuration, immutable after load
	AppConfig *config.AppConfig
	// LLM is the provider every service sends completions through
	LLM llm.Provider
	// Telemetry may be nil, in which case nothing is recorded
	Telemetry *telemetry.Metrics
	// Locks serializes writers of the same conversation across services
	Locks *conversation.LockManager
}

// NewConfig creates a new application configuration
func NewConfig(database db.Database, appConfig *config.AppConfig, provider llm.Provider, metrics *telemetry.Metrics) *Config {
	return &Config{
		DB:        database,
		AppConfig: appConfig,
		LLM:       provider,
		Telemetry: metrics,
		Locks:     conversation.NewLockManager(),
	}
}

func (c *Config) ModelsConfig() *config.ModelsConfig {
	return c.AppConfig.Models
}
