package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults keep local development runnable with only the secrets set.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.max_prompt_chars", 8000)
	v.SetDefault("llm.rate_limit_interval_ms", 3000)
	v.SetDefault("llm.rate_limit_burst", 3)
	v.SetDefault("llm.cache_ttl_seconds", 900)
	v.SetDefault("llm.cache_max_entries", 2000)
	v.SetDefault("extraction.timeout_seconds", 30)
	v.SetDefault("embeddings.timeout_seconds", 15)
	v.SetDefault("worker.max_jobs", 5)
	v.SetDefault("worker.stuck_job_age_minutes", 30)
	v.SetDefault("worker.lock_lease_seconds", 60)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; environment variables cover it.
	}

	// Environment variables with the STUDIO_ prefix override everything,
	// e.g. STUDIO_DATABASE_URL, STUDIO_LLM_GEMINI_API_KEY.
	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly or Unmarshal never
	// sees their environment values.
	for _, key := range []string{
		"database.url",
		"llm.gemini_api_key",
		"storage.endpoint",
		"storage.bucket",
		"storage.access_key",
		"storage.secret_key",
		"storage.use_ssl",
		"extraction.url",
		"embeddings.url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment key %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
