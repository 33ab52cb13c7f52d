package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Worker     WorkerConfig     `mapstructure:"worker"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all generative text service settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// MaxRetries bounds retry attempts for transient API failures.
	// Zero disables retries for call sites that should fail fast.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// RetryDelaySeconds is the base delay for exponential backoff.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`

	// MaxPromptChars bounds how much document text a prompt may carry.
	MaxPromptChars int `mapstructure:"max_prompt_chars" validate:"gt=0"`

	// RateLimitInterval is the minimum spacing between generative calls for
	// one (actor, operation) pair, in milliseconds.
	RateLimitIntervalMs int `mapstructure:"rate_limit_interval_ms" validate:"gte=0"`

	// RateLimitBurst is the burst allowance per (actor, operation) pair.
	RateLimitBurst int `mapstructure:"rate_limit_burst" validate:"gte=0"`

	// CacheTTLSeconds bounds how long a cached generative response is served.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" validate:"gte=0"`

	// CacheMaxEntries bounds the response cache size.
	CacheMaxEntries int `mapstructure:"cache_max_entries" validate:"gte=0"`
}

// StorageConfig contains object storage settings.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"   validate:"required"`
	Bucket    string `mapstructure:"bucket"     validate:"required"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ExtractionConfig contains document text extraction service settings.
// An empty URL disables remote extraction; the pipeline then relies on
// already-present raw text or the heading fallback.
type ExtractionConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// EmbeddingsConfig points at the sibling embedding-generation service that
// is notified when new sections are written. An empty URL disables the
// follow-up entirely.
type EmbeddingsConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// WorkerConfig contains dispatcher and pipeline settings.
type WorkerConfig struct {
	// MaxJobs is the default batch size per dispatch invocation.
	MaxJobs int `mapstructure:"max_jobs" validate:"gt=0"`

	// StuckJobAgeMinutes is how long a job may sit in processing before the
	// dispatcher requeues it as orphaned.
	StuckJobAgeMinutes int `mapstructure:"stuck_job_age_minutes" validate:"gt=0"`

	// LockLeaseSeconds is the advisory lock lease used by the idempotency
	// guard around expensive analyses.
	LockLeaseSeconds int `mapstructure:"lock_lease_seconds" validate:"gt=0"`
}
