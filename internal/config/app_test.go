package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("MODELS_CONFIG_PATH", "/nonexistent/models.json")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LLM.ChatTimeout != 60*time.Second {
		t.Errorf("ChatTimeout = %v, want 60s", cfg.LLM.ChatTimeout)
	}
	if cfg.LLM.AnalysisTimeout != 15*time.Second {
		t.Errorf("AnalysisTimeout = %v, want 15s", cfg.LLM.AnalysisTimeout)
	}
	if !strings.HasPrefix(cfg.LLM.ExpertSystemPrompt, "You are an expert consultant.") {
		t.Errorf("unexpected expert prompt: %q", cfg.LLM.ExpertSystemPrompt)
	}
	if cfg.Credits.SignupCredits != 300 || cfg.Credits.UpgradeBonus != 500 {
		t.Errorf("Credits = %+v, want signup 300 and bonus 500", cfg.Credits)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if !cfg.Models.IsValidModel("deepseek") {
		t.Error("Expected built-in catalogue to be used when the models file is missing")
	}
	if !cfg.Models.Route("gemini").Complete() {
		t.Error("Expected OPENROUTER_API_KEY to be used as the fallback model key")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET environment variable must be set"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32 characters"},
		{"bad driver", map[string]string{"JWT_SECRET": testSecret, "DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"bad provider", map[string]string{"JWT_SECRET": testSecret, "LLM_PROVIDER": "bedrock"}, "LLM_PROVIDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MODELS_CONFIG_PATH", "/nonexistent/models.json")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_InvalidModelsFile(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("MODELS_CONFIG_PATH", writeModelsFile(t, `not json`))

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() error = nil, want error for malformed models file")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_DURATION", "5s")
	t.Setenv("TEST_BAD_DURATION", "soon")

	if got := getEnvAsInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvAsInt = %d, want 42", got)
	}
	if got := getEnvAsInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt with bad value = %d, want default 7", got)
	}
	if got := getEnvAsDuration("TEST_DURATION", time.Second); got != 5*time.Second {
		t.Errorf("getEnvAsDuration = %v, want 5s", got)
	}
	if got := getEnvAsDuration("TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvAsDuration with bad value = %v, want default 1s", got)
	}
	if got := getEnvOrDefault("TEST_UNSET_VALUE", "fallback"); got != "fallback" {
		t.Errorf("getEnvOrDefault = %q, want fallback", got)
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := c.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
