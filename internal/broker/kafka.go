package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/logger"
	"orderflow/pkg/logging"
	"orderflow/pkg/metrics"
	"orderflow/pkg/models"
	"orderflow/pkg/tracing"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaProducer(cfg config.BrokerConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers()...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaProducer{writer: w, logger: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key, body []byte) error {
	headers := tracing.InjectTraceContext(ctx, nil)

	err := p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic:   topic,
			Key:     key,
			Value:   body,
			Headers: headers,
			Time:    time.Now(),
		},
	)
	if err != nil {
		metrics.IncBrokerPublished(constants.BrokerTypeKafka, topic, "error")
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncBrokerPublished(constants.BrokerTypeKafka, topic, "success")
	metrics.ObserveBrokerMessageSize(constants.BrokerTypeKafka, "out", len(body))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type KafkaConsumer struct {
	cfg         config.BrokerConfig
	wg          sync.WaitGroup
	mu          sync.Mutex
	reader      *kafka.Reader
	logger      logger.Logger
	serviceName string
}

func NewKafkaConsumer(cfg config.BrokerConfig, log logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		cfg:         cfg,
		logger:      log,
		serviceName: "unknown",
	}
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.KafkaBrokers(),
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.KafkaBrokers(),
		GroupID:  c.cfg.GroupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	c.mu.Lock()
	c.reader = reader
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		consumeCtx := logging.WithServiceName(ctx, c.serviceName)
		c.logger.InfowCtx(consumeCtx, "Started consuming",
			"topic", topic,
		)

		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.InfowCtx(consumeCtx, "Stopped consuming",
						"topic", topic,
						"reason", "context canceled",
					)
					return
				}
				c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
					"error", err,
					"topic", topic,
				)
				time.Sleep(time.Second)
				continue
			}

			c.handle(consumeCtx, reader, m, handler)
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (c *KafkaConsumer) handle(ctx context.Context, reader *kafka.Reader, m kafka.Message, handler HandlerFunc) {
	msgCtx, span := tracing.StartSpanFromKafkaMessage(ctx, "kafka.consume", m.Headers)
	defer span.End()

	msgCtx = logging.WithMessageID(msgCtx, fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset))
	metrics.IncBrokerConsumed(constants.BrokerTypeKafka, m.Topic)
	metrics.ObserveBrokerMessageSize(constants.BrokerTypeKafka, "in", len(m.Value))

	msg := models.Message{
		Topic:     m.Topic,
		Key:       m.Key,
		Body:      m.Value,
		Headers:   kafkaHeaders(m.Headers),
		Timestamp: m.Time,
	}

	if err := runHandler(msgCtx, c.logger, handlerPolicy(), handler, msg); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to process message after retries, committing to avoid blocking",
			"error", err,
			"topic", m.Topic,
		)
	}

	// A handled offset is committed even if ctx was canceled meanwhile.
	if err := reader.CommitMessages(context.WithoutCancel(ctx), m); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to commit message",
			"error", err,
			"topic", m.Topic,
		)
	}
}

func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	reader := c.reader
	c.mu.Unlock()

	var err error
	if reader != nil {
		err = reader.Close()
	}
	c.wg.Wait()
	return err
}

func kafkaHeaders(headers []kafka.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
