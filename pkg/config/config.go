package config

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration. It is constructed once at
// process start and passed into components by reference; nothing reads
// environment variables after Load returns.
type Config struct {
	Server    ServerConfig
	Webhook   WebhookConfig
	Anthropic AnthropicConfig
	Slack     SlackConfig
	Pipeline  PipelineConfig
	Redis     RedisConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string `envconfig:"PORT" default:"8080"`
	Host            string `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// WebhookConfig holds the inbound webhook settings.
type WebhookConfig struct {
	Secret string `envconfig:"WEBHOOK_SECRET"`
}

// AnthropicConfig holds the summary provider settings.
type AnthropicConfig struct {
	APIKey      string        `envconfig:"ANTHROPIC_API_KEY"`
	BaseURL     string        `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	Model       string        `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5-20250929"`
	MaxTokens   int           `envconfig:"ANTHROPIC_MAX_TOKENS" default:"2048"`
	Temperature float64       `envconfig:"ANTHROPIC_TEMPERATURE" default:"0.2"`
	Timeout     time.Duration `envconfig:"ANTHROPIC_TIMEOUT" default:"60s"`
}

// ChannelMap maps meeting titles to Slack channel ids. Configured as a
// JSON object because titles may contain the separators envconfig uses
// for its built-in map parsing.
type ChannelMap map[string]string

// Decode implements envconfig.Decoder.
func (m *ChannelMap) Decode(value string) error {
	if value == "" {
		*m = ChannelMap{}
		return nil
	}
	return json.Unmarshal([]byte(value), m)
}

// SlackConfig holds the chat platform settings.
type SlackConfig struct {
	BotToken         string        `envconfig:"SLACK_BOT_TOKEN"`
	BaseURL          string        `envconfig:"SLACK_BASE_URL" default:"https://slack.com/api"`
	DefaultChannel   string        `envconfig:"SLACK_DEFAULT_CHANNEL"`
	ChannelMap       ChannelMap    `envconfig:"SLACK_CHANNEL_MAP"`
	Timeout          time.Duration `envconfig:"SLACK_TIMEOUT" default:"30s"`
	MaxMessageLength int           `envconfig:"SLACK_MAX_MESSAGE_LENGTH" default:"40000"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	Workers              int           `envconfig:"PIPELINE_WORKERS" default:"4"`
	QueueSize            int           `envconfig:"PIPELINE_QUEUE_SIZE" default:"64"`
	MaxAttempts          int           `envconfig:"PIPELINE_MAX_ATTEMPTS" default:"3"`
	BackoffBase          time.Duration `envconfig:"PIPELINE_BACKOFF_BASE" default:"500ms"`
	JobTimeout           time.Duration `envconfig:"PIPELINE_JOB_TIMEOUT" default:"2m"`
	TranscriptCharBudget int           `envconfig:"TRANSCRIPT_CHAR_BUDGET" default:"48000"`
}

// RedisConfig holds the optional Redis-backed ledger settings. When Addr
// is empty the in-memory ledger is used instead.
type RedisConfig struct {
	Addr      string        `envconfig:"REDIS_ADDR"`
	Password  string        `envconfig:"REDIS_PASSWORD"`
	DB        int           `envconfig:"REDIS_DB" default:"0"`
	LedgerTTL time.Duration `envconfig:"LEDGER_TTL" default:"72h"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Webhook.Secret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.Slack.BotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.Slack.DefaultChannel == "" {
		return fmt.Errorf("SLACK_DEFAULT_CHANNEL is required")
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("PIPELINE_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// GetServerAddr returns the listen address.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
