package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/logger"
)

func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case constants.BrokerTypeKafka:
		return NewKafkaProducer(cfg, log), nil
	case constants.BrokerTypeRabbitMQ:
		return NewRabbitMQProducer(cfg, log)
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

func NewConsumer(cfg config.BrokerConfig, log logger.Logger) (Consumer, error) {
	switch cfg.Type {
	case constants.BrokerTypeKafka:
		return NewKafkaConsumer(cfg, log), nil
	case constants.BrokerTypeRabbitMQ:
		return NewRabbitMQConsumer(cfg, log)
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// Ping dials the configured broker once and hangs up.
func Ping(ctx context.Context, cfg config.BrokerConfig) error {
	switch cfg.Type {
	case constants.BrokerTypeKafka:
		brokers := cfg.KafkaBrokers()
		if len(brokers) == 0 {
			return errors.New("no kafka brokers configured")
		}
		conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return fmt.Errorf("failed to dial kafka: %w", err)
		}
		return conn.Close()
	case constants.BrokerTypeRabbitMQ:
		client, err := dialRabbit(cfg.ConnectionString)
		if err != nil {
			return err
		}
		return client.Close()
	default:
		return fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}
