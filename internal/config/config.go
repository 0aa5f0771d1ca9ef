package config

import (
	"time"
)

// Config is built once by Load and handed to constructors; nothing in the
// pipeline mutates it or reads the environment after startup.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Sink           SinkConfig           `mapstructure:"sink"`
	Dispatcher     DispatcherConfig     `mapstructure:"dispatcher"`
	Reserver       ReserverConfig       `mapstructure:"reserver"`
	Notify         NotifyConfig         `mapstructure:"notify"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BrokerConfig struct {
	Type             string `mapstructure:"type"`
	ConnectionString string `mapstructure:"connection_string"`
	Topic            string `mapstructure:"topic"`
	GroupID          string `mapstructure:"group_id"`
	// Concurrency bounds in-flight deliveries on brokers that push (RabbitMQ).
	Concurrency int `mapstructure:"concurrency"`
}

type SinkConfig struct {
	Type             string `mapstructure:"type"`
	ConnectionString string `mapstructure:"connection_string"`
	Database         string `mapstructure:"database"`
	Container        string `mapstructure:"container"`
}

type DispatcherConfig struct {
	ProcessorURL          string        `mapstructure:"processor_url"`
	NotificationRecipient string        `mapstructure:"notification_recipient"`
	HTTPTimeout           time.Duration `mapstructure:"http_timeout"`
}

type ReserverConfig struct {
	FallbackURL     string        `mapstructure:"fallback_url"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	UniqueNames     bool          `mapstructure:"unique_names"`
	FallbackTimeout time.Duration `mapstructure:"fallback_timeout"`
}

type NotifyConfig struct {
	Type  string `mapstructure:"type"`
	Queue string `mapstructure:"queue"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RPS             float64       `mapstructure:"rps"`
	Burst           int           `mapstructure:"burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxAge          time.Duration `mapstructure:"max_age"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}
