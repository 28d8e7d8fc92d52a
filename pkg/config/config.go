package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Placeholder key shipped in .env.example; treated as "not configured".
const PlaceholderAPIKey = "sk-ant-REDACTED"

type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Archive  ArchiveConfig
	Email    EmailConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        string `env:"PORT" envDefault:"3001"`
	BodyLimitMB int    `env:"BODY_LIMIT_MB" envDefault:"100"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
}

type LLMConfig struct {
	APIKey         string `env:"ANTHROPIC_API_KEY"`
	Model          string `env:"ANTHROPIC_MODEL" envDefault:"claude-opus-4-5-20251101"`
	BaseURL        string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	TimeoutSeconds int    `env:"LLM_TIMEOUT_SECONDS" envDefault:"120"`
}

type DatabaseConfig struct {
	// URL switches account storage from the flat file to postgres when set.
	URL       string `env:"DATABASE_URL"`
	UsersFile string `env:"USERS_FILE" envDefault:"users.json"`
}

type JWTConfig struct {
	Secret        string `env:"JWT_SECRET" envDefault:"propertylens-dev-secret"`
	TokenTTLHours int    `env:"TOKEN_TTL_HOURS" envDefault:"24"`
}

type ArchiveConfig struct {
	Bucket        string `env:"ARCHIVE_BUCKET"`
	Region        string `env:"ARCHIVE_REGION" envDefault:"auto"`
	Endpoint      string `env:"ARCHIVE_ENDPOINT"`
	AccessKey     string `env:"ARCHIVE_ACCESS_KEY"`
	SecretKey     string `env:"ARCHIVE_SECRET_KEY"`
	RetentionDays int    `env:"ARCHIVE_RETENTION_DAYS" envDefault:"30"`
	SweepSchedule string `env:"ARCHIVE_SWEEP_SCHEDULE" envDefault:"0 3 * * *"`
}

// EmailConfig enables welcome emails through Resend when the key is set.
type EmailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"EMAIL_FROM" envDefault:"PropertyLens <noreply@propertylens.app>"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasAPIKey reports whether a usable model key is configured.
func (c LLMConfig) HasAPIKey() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c JWTConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}

func (c ArchiveConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
