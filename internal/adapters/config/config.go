package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"finsight/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	AI            AIConfig
	Embeddings    EmbeddingsConfig
	ErrorTracking ErrorTrackingConfig
	Workflow      WorkflowConfig
	Schedule      ScheduleConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"finsight"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`

	// Optional directory whose *.tmpl files replace the embedded prompts
	TemplatesDir string `envconfig:"TEMPLATES_DIR"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"finsight"`
	MaxConns int    `envconfig:"CLICKHOUSE_MAX_CONNS" default:"10"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"finsight"`
}

// TelegramConfig is optional: with an empty token finished reports are not pushed anywhere
type TelegramConfig struct {
	BotToken string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminIDs []int64 `envconfig:"TELEGRAM_ADMIN_IDS"`
}

type AIConfig struct {
	Provider     string        `envconfig:"AI_PROVIDER" default:"openai"` // openai|gemini
	OpenAIKey    string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	GeminiKey    string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	Temperature  float64       `envconfig:"AI_TEMPERATURE" default:"0.2"`
	ReqPerMinute float64       `envconfig:"AI_REQ_PER_MINUTE" default:"60"`
	Burst        int           `envconfig:"AI_BURST" default:"5"`
	Distributed  bool          `envconfig:"AI_RATE_LIMIT_DISTRIBUTED" default:"true"`
	Timeout      time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
}

type EmbeddingsConfig struct {
	Provider string        `envconfig:"EMBEDDINGS_PROVIDER" default:"openai"`
	Model    string        `envconfig:"EMBEDDINGS_MODEL" default:"text-embedding-3-small"`
	Timeout  time.Duration `envconfig:"EMBEDDINGS_TIMEOUT" default:"30s"`
	CacheTTL time.Duration `envconfig:"EMBEDDINGS_CACHE_TTL" default:"24h"`
}

// EmbeddingsAPIKey picks the AI key matching the embeddings provider
func (c *Config) EmbeddingsAPIKey() string {
	if c.Embeddings.Provider == "gemini" {
		return c.AI.GeminiKey
	}
	return c.AI.OpenAIKey
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// ScheduleConfig holds cron expressions (robfig/cron, with seconds) for each workflow kind
type ScheduleConfig struct {
	MarketAnalysis string        `envconfig:"SCHEDULE_MARKET_ANALYSIS" default:"0 0 5 * * MON-FRI"`
	MarketNews     string        `envconfig:"SCHEDULE_MARKET_NEWS" default:"0 30 5 * * MON-FRI"`
	SlotLockTTL    time.Duration `envconfig:"SCHEDULE_SLOT_LOCK_TTL" default:"30m"`
}

// Load reads configuration from environment variables.
// A .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Workflow.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid workflow config")
	}

	return &cfg, nil
}
