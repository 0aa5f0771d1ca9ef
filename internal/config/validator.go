package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"orderflow/internal/constants"
)

// Role selects which parts of the configuration a binary depends on.
type Role string

const (
	RoleOrderService Role = "order"
	RoleReserver     Role = "reserver"
	RoleDelivery     Role = "delivery"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Validate checks the values the given role needs at startup. The fallback
// URL is deliberately not required here: a missing value fails only the
// fallback send.
func Validate(cfg *Config, role Role) error {
	var errs []error

	errs = appendErr(errs, validateServer(cfg.Server))
	errs = appendErr(errs, validateLogging(cfg.Logging))

	switch role {
	case RoleOrderService:
		errs = appendErr(errs, validateBroker(cfg.Broker))
		errs = appendErr(errs, validateDispatcher(cfg.Dispatcher))
		errs = appendErr(errs, validateNotify(cfg.Notify, cfg.Database.Redis))
		if cfg.CircuitBreaker.Enabled {
			errs = appendErr(errs, validateCircuitBreaker(cfg.CircuitBreaker))
		}
	case RoleReserver:
		errs = appendErr(errs, validateBroker(cfg.Broker))
		errs = appendErr(errs, validateSink(cfg.Sink))
		errs = appendErr(errs, validateReserver(cfg.Reserver))
	case RoleDelivery:
	default:
		errs = append(errs, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role: %s", role)})
	}

	if cfg.RateLimit.Enabled {
		errs = appendErr(errs, validateRateLimit(cfg.RateLimit))
	}

	return errors.Join(errs...)
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeout <= 0 {
		return &ValidationError{Field: "server.read_timeout", Message: "read timeout must be positive"}
	}

	if cfg.WriteTimeout <= 0 {
		return &ValidationError{Field: "server.write_timeout", Message: "write timeout must be positive"}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch cfg.Format {
	case "", "json", "console":
		return nil
	default:
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format: %s (valid: json, console)", cfg.Format),
		}
	}
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.ConnectionString == "" {
		return &ValidationError{Field: "broker.connection_string", Message: "broker connection string is required"}
	}

	if cfg.Topic == "" {
		return &ValidationError{Field: "broker.topic", Message: "broker topic is required"}
	}

	switch cfg.Type {
	case constants.BrokerTypeKafka:
		if len(cfg.KafkaBrokers()) == 0 {
			return &ValidationError{Field: "broker.connection_string", Message: "at least one Kafka broker is required"}
		}
		if cfg.GroupID == "" {
			return &ValidationError{Field: "broker.group_id", Message: "Kafka consumer group ID is required"}
		}
	case constants.BrokerTypeRabbitMQ:
		if !strings.HasPrefix(cfg.ConnectionString, "amqp://") && !strings.HasPrefix(cfg.ConnectionString, "amqps://") {
			return &ValidationError{Field: "broker.connection_string", Message: "RabbitMQ connection string must start with amqp:// or amqps://"}
		}
		if cfg.Concurrency < 1 {
			return &ValidationError{Field: "broker.concurrency", Message: "concurrency must be at least 1"}
		}
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka, rabbitmq)", cfg.Type),
		}
	}

	return nil
}

func validateSink(cfg SinkConfig) error {
	if cfg.ConnectionString == "" {
		return &ValidationError{Field: "sink.connection_string", Message: "sink connection string is required"}
	}

	if cfg.Container == "" {
		return &ValidationError{Field: "sink.container", Message: "sink container name is required"}
	}

	switch cfg.Type {
	case constants.SinkTypeMongoDB:
		if !strings.HasPrefix(cfg.ConnectionString, "mongodb://") && !strings.HasPrefix(cfg.ConnectionString, "mongodb+srv://") {
			return &ValidationError{Field: "sink.connection_string", Message: "MongoDB URI must start with mongodb:// or mongodb+srv://"}
		}
		if cfg.Database == "" {
			return &ValidationError{Field: "sink.database", Message: "MongoDB database name is required"}
		}
	case constants.SinkTypePostgres:
		if !strings.HasPrefix(cfg.ConnectionString, "postgres://") && !strings.HasPrefix(cfg.ConnectionString, "postgresql://") {
			return &ValidationError{Field: "sink.connection_string", Message: "PostgreSQL DSN must start with postgres:// or postgresql://"}
		}
	default:
		return &ValidationError{
			Field:   "sink.type",
			Message: fmt.Sprintf("unknown sink type: %s (supported: mongodb, postgres)", cfg.Type),
		}
	}

	return nil
}

func validateDispatcher(cfg DispatcherConfig) error {
	if err := validateAbsoluteURL("dispatcher.processor_url", cfg.ProcessorURL); err != nil {
		return err
	}

	if cfg.NotificationRecipient == "" {
		return &ValidationError{Field: "dispatcher.notification_recipient", Message: "notification recipient is required"}
	}

	if cfg.HTTPTimeout <= 0 {
		return &ValidationError{Field: "dispatcher.http_timeout", Message: "http timeout must be positive"}
	}

	return nil
}

func validateReserver(cfg ReserverConfig) error {
	if cfg.MaxAttempts < 1 {
		return &ValidationError{Field: "reserver.max_attempts", Message: "max_attempts must be at least 1"}
	}

	if cfg.RetryInterval < 0 {
		return &ValidationError{Field: "reserver.retry_interval", Message: "retry_interval must be non-negative"}
	}

	if cfg.FallbackURL != "" {
		if err := validateAbsoluteURL("reserver.fallback_url", cfg.FallbackURL); err != nil {
			return err
		}
	}

	return nil
}

func validateNotify(cfg NotifyConfig, redis RedisConfig) error {
	switch cfg.Type {
	case constants.NotifyTypeLog:
		return nil
	case constants.NotifyTypeRedis:
		if redis.Host == "" {
			return &ValidationError{Field: "database.redis.host", Message: "Redis host is required for the redis notifier"}
		}
		if redis.Port < 1 || redis.Port > 65535 {
			return &ValidationError{
				Field:   "database.redis.port",
				Message: fmt.Sprintf("port must be between 1 and 65535, got %d", redis.Port),
			}
		}
		if cfg.Queue == "" {
			return &ValidationError{Field: "notify.queue", Message: "mail queue key is required"}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "notify.type",
			Message: fmt.Sprintf("unknown notifier type: %s (supported: redis, log)", cfg.Type),
		}
	}
}

func validateCircuitBreaker(cfg CircuitBreakerConfig) error {
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		return &ValidationError{Field: "circuit_breaker.failure_ratio", Message: "failure_ratio must be in (0, 1]"}
	}
	if cfg.Timeout <= 0 {
		return &ValidationError{Field: "circuit_breaker.timeout", Message: "timeout must be positive"}
	}
	return nil
}

func validateRateLimit(cfg RateLimitConfig) error {
	if cfg.RPS <= 0 {
		return &ValidationError{Field: "rate_limit.rps", Message: "rps must be positive"}
	}
	if cfg.Burst < 1 {
		return &ValidationError{Field: "rate_limit.burst", Message: "burst must be at least 1"}
	}
	if cfg.CleanupInterval <= 0 {
		return &ValidationError{Field: "rate_limit.cleanup_interval", Message: "cleanup_interval must be positive"}
	}
	return nil
}

func validateAbsoluteURL(field, raw string) error {
	if raw == "" {
		return &ValidationError{Field: field, Message: "URL is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be an absolute URL, got %q", raw)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: field, Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	return nil
}
