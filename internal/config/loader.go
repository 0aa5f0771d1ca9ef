package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"orderflow/internal/constants"
)

// Load reads the optional YAML file, overlays environment variables and
// validates the result for the given role. An empty configFile means
// environment-only configuration.
func Load(configFile string, role Role) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVariables(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg, role); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("broker.type", constants.BrokerTypeKafka)
	v.SetDefault("broker.topic", constants.DefaultReserveTopic)
	v.SetDefault("broker.group_id", constants.DefaultGroupID)
	v.SetDefault("broker.concurrency", constants.DefaultConsumerWorkers)

	v.SetDefault("sink.type", constants.SinkTypeMongoDB)
	v.SetDefault("sink.database", constants.DefaultSinkDatabase)
	v.SetDefault("sink.container", constants.DefaultContainer)

	v.SetDefault("dispatcher.notification_recipient", constants.DefaultRecipient)
	v.SetDefault("dispatcher.http_timeout", constants.DefaultHTTPTimeout)

	v.SetDefault("reserver.max_attempts", constants.DefaultMaxUploadAttempts)
	v.SetDefault("reserver.retry_interval", time.Duration(0))
	v.SetDefault("reserver.unique_names", false)
	v.SetDefault("reserver.fallback_timeout", constants.DefaultFallbackTimeout)

	v.SetDefault("notify.type", constants.NotifyTypeLog)
	v.SetDefault("notify.queue", constants.DefaultMailQueue)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", 60*time.Second)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_ratio", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 5)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.cleanup_interval", 5*time.Minute)
	v.SetDefault("rate_limit.max_age", 10*time.Minute)

	v.SetDefault("database.redis.host", "")
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "")
	v.SetDefault("tracing.otlp.endpoint", "")
	v.SetDefault("tracing.otlp.insecure", true)
	v.SetDefault("tracing.sampler.type", "always_on")
	v.SetDefault("tracing.sampler.param", 1.0)
}

// bindEnvVariables maps the deployment's well-known variable names onto
// config keys. The first name listed wins when several are set.
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("sink.connection_string", "SINK_CONNECTION_STRING", "AzureWebJobsStorage")
	v.BindEnv("sink.container", "ORDERS_CONTAINER", "OrdersContainer")
	v.BindEnv("sink.type", "SINK_TYPE")
	v.BindEnv("sink.database", "SINK_DATABASE")

	v.BindEnv("reserver.fallback_url", "LOGIC_APP_URL")
	v.BindEnv("reserver.max_attempts", "RESERVER_MAX_ATTEMPTS")
	v.BindEnv("reserver.unique_names", "RESERVER_UNIQUE_NAMES")

	v.BindEnv("broker.connection_string", "BROKER_CONNECTION_STRING", "SERVICE_BUS_CONNECTION_STRING")
	v.BindEnv("broker.type", "BROKER_TYPE")
	v.BindEnv("broker.topic", "BROKER_TOPIC")
	v.BindEnv("broker.group_id", "BROKER_GROUP_ID")

	v.BindEnv("dispatcher.processor_url", "PROCESSOR_URL")
	v.BindEnv("dispatcher.notification_recipient", "NOTIFICATION_RECIPIENT")

	v.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	v.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	v.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("logging.level", "LOGGING_LEVEL")
	v.BindEnv("logging.format", "LOGGING_FORMAT")

	v.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
}

// KafkaBrokers splits the broker connection string into host:port entries.
func (c BrokerConfig) KafkaBrokers() []string {
	parts := strings.Split(c.ConnectionString, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
