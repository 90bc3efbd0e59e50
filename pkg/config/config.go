package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Plans     PlansConfig
	Payments  PaymentsConfig
	Identity  IdentityConfig
	Mail      MailConfig
	Storage   StorageConfig
	LLM       LLMConfig
	GitHub    GitHubConfig
	RateLimit RateLimitConfig
	Outbound  OutboundConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	LogLevel       string
	FrontendURL    string
	AllowedOrigins []string
	CookieSecure   bool
	LinkSecret     string
}

type DatabaseConfig struct {
	Driver   string // postgres or mongo
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MongoURI string
}

type RedisConfig struct {
	Host              string
	Port              int
	Password          string
	WorkerConcurrency int
}

type SessionConfig struct {
	TTLHours int
}

// PlansConfig holds the per-tier quota table.
type PlansConfig struct {
	FreePortfolioLimit int
	FreeAIEnabled      bool
	ProPortfolioLimit  int
	ProAIEnabled       bool
}

type PaymentsConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
}

type IdentityConfig struct {
	ProviderURL string
}

type MailConfig struct {
	Driver      string // smtp, sendgrid or log
	From        string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SendGridKey string
}

type StorageConfig struct {
	Driver          string // s3 or gcs
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	GCSCredentials  string
	MaxImageBytes   int64
	MaxImageDim     int
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GitHubConfig struct {
	Token string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
	AuthPerMinute int
	AuthBurst     int
}

type OutboundConfig struct {
	TimeoutSeconds int
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (s *SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func (o *OutboundConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("LINK_SECRET", "change-me-in-production")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "folio")
	v.SetDefault("DATABASE_PASSWORD", "folio_secret")
	v.SetDefault("DATABASE_NAME", "folio")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("MONGO_URL", "mongodb://localhost:27017")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("SESSION_TTL_HOURS", 7*24)
	v.SetDefault("PLAN_FREE_PORTFOLIO_LIMIT", 1)
	v.SetDefault("PLAN_FREE_AI_ENABLED", false)
	v.SetDefault("PLAN_PRO_PORTFOLIO_LIMIT", 5)
	v.SetDefault("PLAN_PRO_AI_ENABLED", true)
	v.SetDefault("RAZORPAY_CURRENCY", "INR")
	v.SetDefault("IDENTITY_PROVIDER_URL", "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data")
	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("MAIL_FROM_NAME", "PortfolioAI")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_MAX_IMAGE_BYTES", 1<<20)
	v.SetDefault("STORAGE_MAX_IMAGE_DIM", 1024)
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("OPENROUTER_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("AUTH_RATE_PER_MINUTE", 10)
	v.SetDefault("AUTH_RATE_BURST", 5)
	v.SetDefault("OUTBOUND_TIMEOUT_SECONDS", 15)

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			FrontendURL:    strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
			CookieSecure:   v.GetBool("COOKIE_SECURE"),
			LinkSecret:     v.GetString("LINK_SECRET"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DATABASE_DRIVER"),
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
			MongoURI: v.GetString("MONGO_URL"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),

			WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
		Session: SessionConfig{
			TTLHours: v.GetInt("SESSION_TTL_HOURS"),
		},
		Plans: PlansConfig{
			FreePortfolioLimit: v.GetInt("PLAN_FREE_PORTFOLIO_LIMIT"),
			FreeAIEnabled:      v.GetBool("PLAN_FREE_AI_ENABLED"),
			ProPortfolioLimit:  v.GetInt("PLAN_PRO_PORTFOLIO_LIMIT"),
			ProAIEnabled:       v.GetBool("PLAN_PRO_AI_ENABLED"),
		},
		Payments: PaymentsConfig{
			KeyID:         v.GetString("RAZORPAY_KEY_ID"),
			KeySecret:     v.GetString("RAZORPAY_KEY_SECRET"),
			WebhookSecret: v.GetString("RAZORPAY_WEBHOOK_SECRET"),
			Currency:      v.GetString("RAZORPAY_CURRENCY"),
		},
		Identity: IdentityConfig{
			ProviderURL: v.GetString("IDENTITY_PROVIDER_URL"),
		},
		Mail: MailConfig{
			Driver:      v.GetString("MAIL_DRIVER"),
			From:        v.GetString("MAIL_FROM"),
			FromName:    v.GetString("MAIL_FROM_NAME"),
			SMTPHost:    v.GetString("SMTP_HOST"),
			SMTPPort:    v.GetInt("SMTP_PORT"),
			SMTPUser:    v.GetString("SMTP_USER"),
			SMTPPass:    v.GetString("SMTP_PASS"),
			SendGridKey: v.GetString("SENDGRID_API_KEY"),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("STORAGE_DRIVER"),
			Bucket:          v.GetString("STORAGE_BUCKET"),
			Region:          v.GetString("STORAGE_REGION"),
			Endpoint:        v.GetString("STORAGE_ENDPOINT"),
			AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
			PublicBaseURL:   v.GetString("STORAGE_PUBLIC_BASE_URL"),
			GCSCredentials:  v.GetString("GCS_CREDENTIALS_FILE"),
			MaxImageBytes:   v.GetInt64("STORAGE_MAX_IMAGE_BYTES"),
			MaxImageDim:     v.GetInt("STORAGE_MAX_IMAGE_DIM"),
		},
		LLM: LLMConfig{
			APIKey:  v.GetString("OPENROUTER_API_KEY"),
			BaseURL: v.GetString("OPENROUTER_BASE_URL"),
			Model:   v.GetString("OPENROUTER_MODEL"),
		},
		GitHub: GitHubConfig{
			Token: v.GetString("GITHUB_TOKEN"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			AuthPerMinute: v.GetInt("AUTH_RATE_PER_MINUTE"),
			AuthBurst:     v.GetInt("AUTH_RATE_BURST"),
		},
		Outbound: OutboundConfig{
			TimeoutSeconds: v.GetInt("OUTBOUND_TIMEOUT_SECONDS"),
		},
	}

	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.SMTPUser
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
