package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Media    MediaConfig    `yaml:"media"`
	Feed     FeedConfig     `yaml:"feed"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	LogLevel string         `yaml:"log_level"`
}

type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Resource string        `yaml:"resource"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

// RetryConfig applies to reads only. Mutations are never retried.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type MediaConfig struct {
	UploadURL    string        `yaml:"upload_url"`
	CloudName    string        `yaml:"cloud_name"`
	UploadPreset string        `yaml:"upload_preset"`
	Folder       string        `yaml:"folder"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Endpoint returns the upload URL, deriving it from the cloud name when unset.
func (m MediaConfig) Endpoint() string {
	if m.UploadURL != "" {
		return m.UploadURL
	}
	return fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/upload", m.CloudName)
}

type FeedConfig struct {
	PageSize int `yaml:"page_size"`
	HomeSize int `yaml:"home_size"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// Enabled reports whether story events should be published.
func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type MirrorConfig struct {
	SourceID string        `yaml:"source_id"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML after expanding ${VAR} references from the environment.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.API.Resource == "" {
		c.API.Resource = "stories"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.Retry.MaxAttempts == 0 {
		c.API.Retry.MaxAttempts = 1
	}
	if c.API.Retry.InitialBackoff == 0 {
		c.API.Retry.InitialBackoff = 500 * time.Millisecond
	}
	if c.API.Retry.MaxBackoff == 0 {
		c.API.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Media.UploadPreset == "" {
		c.Media.UploadPreset = "stories_upload"
	}
	if c.Media.Folder == "" {
		c.Media.Folder = "TechAssignment"
	}
	if c.Media.Timeout == 0 {
		c.Media.Timeout = 2 * time.Minute
	}
	if c.Feed.PageSize == 0 {
		c.Feed.PageSize = 3
	}
	if c.Feed.HomeSize == 0 {
		c.Feed.HomeSize = 6
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "storyfeed"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "stories"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "story_events"
	}
	if c.Mirror.SourceID == "" {
		c.Mirror.SourceID = c.API.Resource
	}
	if c.Mirror.Interval == 0 {
		c.Mirror.Interval = 5 * time.Minute
	}
	if c.Mirror.Timeout == 0 {
		c.Mirror.Timeout = 2 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Media.UploadURL == "" && c.Media.CloudName == "" {
		return fmt.Errorf("media.upload_url or media.cloud_name is required")
	}
	if c.Feed.PageSize < 1 {
		return fmt.Errorf("feed.page_size must be positive")
	}
	if c.Feed.HomeSize < 1 {
		return fmt.Errorf("feed.home_size must be positive")
	}
	if c.API.Retry.MaxAttempts < 1 {
		return fmt.Errorf("api.retry.max_attempts must be positive")
	}
	return nil
}
