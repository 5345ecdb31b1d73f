package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// Config holds all the configuration for the service
type Config struct {
	Port         string
	DatabasePath string
	RedisURL     string
	// AdminTokenHash guards destructive data endpoints. Empty disables them.
	AdminTokenHash string
	// DefaultProvider seeds the provider config when none is stored yet.
	DefaultProvider models.ProviderConfig
}

// Load reads configuration from the environment, with .env support.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.LogStartup("No .env file found, using environment only")
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8044"),
		DatabasePath: getEnv("DB_PATH", "./studyspark.db"),
		RedisURL:     getEnv("REDIS_URL", "redis://127.0.0.1:6379"),
		DefaultProvider: models.ProviderConfig{
			Provider: getEnv("AI_PROVIDER", models.ProviderDeepseek),
			APIKey:   os.Getenv("AI_API_KEY"),
			BaseURL:  getEnv("AI_BASE_URL", "https://api.deepseek.com/v1"),
			Model:    getEnv("AI_MODEL", "deepseek-chat"),
		},
	}

	if token := os.Getenv("ADMIN_TOKEN"); token != "" {
		hash, err := utils.HashAdminToken(token)
		if err != nil {
			return nil, err
		}
		cfg.AdminTokenHash = hash
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
