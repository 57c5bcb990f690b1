package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration. Values come from the YAML
// file first and are then overridden by YATUBE_* environment variables.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	MySQL         MySQLConfig         `yaml:"mysql"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	JWT           JWTConfig           `yaml:"jwt"`
	App           AppConfig           `yaml:"app"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"YATUBE_SERVER_PORT"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"YATUBE_LOG_LEVEL"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn" env:"YATUBE_MYSQL_DSN"`
	MaxOpenConns    int           `yaml:"maxOpenConns" env:"YATUBE_MYSQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"maxIdleConns" env:"YATUBE_MYSQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" env:"YATUBE_MYSQL_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `yaml:"autoMigrate" env:"YATUBE_MYSQL_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"YATUBE_REDIS_ADDR"`
	Password string `yaml:"password" env:"YATUBE_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"YATUBE_REDIS_DB"`
}

// KafkaConfig configures the post event stream used to fan posts out to
// follower feeds. With Enabled=false the fan-out runs inline.
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled" env:"YATUBE_KAFKA_ENABLED"`
	Brokers      []string      `yaml:"brokers" env:"YATUBE_KAFKA_BROKERS" envSeparator:","`
	Topic        string        `yaml:"topic" env:"YATUBE_KAFKA_TOPIC"`
	GroupID      string        `yaml:"groupId" env:"YATUBE_KAFKA_GROUP_ID"`
	BatchTimeout time.Duration `yaml:"batchTimeout" env:"YATUBE_KAFKA_BATCH_TIMEOUT"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"YATUBE_JWT_SECRET"`
	Issuer     string        `yaml:"issuer" env:"YATUBE_JWT_ISSUER"`
	AccessTTL  time.Duration `yaml:"accessTTL" env:"YATUBE_JWT_ACCESS_TTL"`
	RefreshTTL time.Duration `yaml:"refreshTTL" env:"YATUBE_JWT_REFRESH_TTL"`
}

type AppConfig struct {
	ImageUploadDir string        `yaml:"imageUploadDir" env:"YATUBE_IMAGE_UPLOAD_DIR"`
	GroupCacheTTL  time.Duration `yaml:"groupCacheTTL" env:"YATUBE_GROUP_CACHE_TTL"`
	FeedMaxLength  int64         `yaml:"feedMaxLength" env:"YATUBE_FEED_MAX_LENGTH"`
}

type ObservabilityConfig struct {
	ServiceName string         `yaml:"serviceName" env:"YATUBE_SERVICE_NAME"`
	Environment string         `yaml:"environment" env:"YATUBE_ENV"`
	Tracing     TracingConfig  `yaml:"tracing"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Logging     RequestLogging `yaml:"logging"`
}

type TracingConfig struct {
	Enabled          bool    `yaml:"enabled" env:"YATUBE_TRACING_ENABLED"`
	OTLPGrpcEndpoint string  `yaml:"otlpGrpcEndpoint" env:"YATUBE_OTLP_GRPC_ENDPOINT"`
	Insecure         bool    `yaml:"insecure" env:"YATUBE_OTLP_INSECURE"`
	SampleRate       float64 `yaml:"sampleRate" env:"YATUBE_TRACING_SAMPLE_RATE"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"YATUBE_METRICS_ENABLED"`
	Path    string `yaml:"path" env:"YATUBE_METRICS_PATH"`
}

type RequestLogging struct {
	RequestIDHeader string `yaml:"requestIdHeader" env:"YATUBE_REQUEST_ID_HEADER"`
}

// Load reads the YAML file at path, applies environment overrides and fills
// in defaults. A missing file is not an error: env and defaults still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.MySQL.MaxOpenConns == 0 {
		c.MySQL.MaxOpenConns = 20
	}
	if c.MySQL.MaxIdleConns == 0 {
		c.MySQL.MaxIdleConns = 10
	}
	if c.MySQL.ConnMaxLifetime == 0 {
		c.MySQL.ConnMaxLifetime = time.Hour
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "yatube.post-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "yatube-feed"
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 10 * time.Millisecond
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "yatube"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 24 * time.Hour
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.App.ImageUploadDir == "" {
		c.App.ImageUploadDir = "media"
	}
	if c.App.GroupCacheTTL == 0 {
		c.App.GroupCacheTTL = 10 * time.Minute
	}
	if c.App.FeedMaxLength == 0 {
		c.App.FeedMaxLength = 1000
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "yatube-backend"
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "local"
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Observability.Logging.RequestIDHeader == "" {
		c.Observability.Logging.RequestIDHeader = "X-Request-ID"
	}
}
