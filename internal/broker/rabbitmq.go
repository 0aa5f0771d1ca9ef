package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/logger"
	"orderflow/pkg/logging"
	"orderflow/pkg/metrics"
	"orderflow/pkg/models"
	"orderflow/pkg/tracing"
)

type rabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func dialRabbit(url string) (*rabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	return &rabbitClient{conn: conn, channel: channel}, nil
}

// declareQueue declares a durable queue named after the topic.
func (r *rabbitClient) declareQueue(name string) (amqp.Queue, error) {
	return r.channel.QueueDeclare(name, true, false, false, false, nil)
}

func (r *rabbitClient) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil && err != amqp.ErrClosed {
			_ = r.conn.Close()
			return err
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && err != amqp.ErrClosed {
			return err
		}
	}
	return nil
}

type RabbitMQProducer struct {
	client *rabbitClient
	logger logger.Logger

	mu       sync.Mutex
	declared map[string]bool
}

func NewRabbitMQProducer(cfg config.BrokerConfig, log logger.Logger) (*RabbitMQProducer, error) {
	client, err := dialRabbit(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}
	return &RabbitMQProducer{
		client:   client,
		logger:   log,
		declared: make(map[string]bool),
	}, nil
}

func (p *RabbitMQProducer) Publish(ctx context.Context, topic string, key, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[topic] {
		if _, err := p.client.declareQueue(topic); err != nil {
			metrics.IncBrokerPublished(constants.BrokerTypeRabbitMQ, topic, "error")
			return fmt.Errorf("failed to declare queue %s: %w", topic, err)
		}
		p.declared[topic] = true
	}

	err := p.client.channel.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    string(key),
		Timestamp:    time.Now(),
		Headers:      tracing.InjectAMQPTraceContext(ctx, nil),
		Body:         body,
	})
	if err != nil {
		metrics.IncBrokerPublished(constants.BrokerTypeRabbitMQ, topic, "error")
		return fmt.Errorf("failed to publish rabbitmq message: %w", err)
	}

	metrics.IncBrokerPublished(constants.BrokerTypeRabbitMQ, topic, "success")
	metrics.ObserveBrokerMessageSize(constants.BrokerTypeRabbitMQ, "out", len(body))
	return nil
}

func (p *RabbitMQProducer) Close() error {
	return p.client.Close()
}

type RabbitMQConsumer struct {
	cfg         config.BrokerConfig
	client      *rabbitClient
	logger      logger.Logger
	serviceName string
	wg          sync.WaitGroup
}

func NewRabbitMQConsumer(cfg config.BrokerConfig, log logger.Logger) (*RabbitMQConsumer, error) {
	client, err := dialRabbit(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}
	return &RabbitMQConsumer{
		cfg:         cfg,
		client:      client,
		logger:      log,
		serviceName: "unknown",
	}, nil
}

func (c *RabbitMQConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *RabbitMQConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	workers := c.cfg.Concurrency
	if workers <= 0 {
		workers = constants.DefaultConsumerWorkers
	}

	queue, err := c.client.declareQueue(topic)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}
	if err := c.client.channel.Qos(workers, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := c.client.channel.Consume(queue.Name, c.serviceName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", topic, err)
	}

	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming",
		"topic", topic,
		"workers", workers,
	)

	var g errgroup.Group
	g.SetLimit(workers)

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			c.logger.InfowCtx(consumeCtx, "Stopped consuming",
				"topic", topic,
				"reason", "context canceled",
			)
			_ = c.client.channel.Cancel(c.serviceName, false)
			_ = g.Wait()
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				_ = g.Wait()
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("rabbitmq delivery channel closed for %s", topic)
			}
			g.Go(func() error {
				c.handle(consumeCtx, topic, d, handler)
				return nil
			})
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, topic string, d amqp.Delivery, handler HandlerFunc) {
	msgCtx, span := tracing.StartSpanFromAMQPDelivery(ctx, "rabbitmq.consume", d.Headers)
	defer span.End()

	msgCtx = logging.WithMessageID(msgCtx, fmt.Sprintf("%s/%d", topic, d.DeliveryTag))
	metrics.IncBrokerConsumed(constants.BrokerTypeRabbitMQ, topic)
	metrics.ObserveBrokerMessageSize(constants.BrokerTypeRabbitMQ, "in", len(d.Body))

	msg := models.Message{
		Topic:     topic,
		Key:       []byte(d.MessageId),
		Body:      d.Body,
		Headers:   amqpHeaders(d.Headers),
		Timestamp: d.Timestamp,
	}

	if err := runHandler(msgCtx, c.logger, handlerPolicy(), handler, msg); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to process message after retries, acknowledging to avoid blocking",
			"error", err,
			"topic", topic,
		)
	}

	if err := d.Ack(false); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to ack message",
			"error", err,
			"topic", topic,
		)
	}
}

func (c *RabbitMQConsumer) Close() error {
	err := c.client.Close()
	c.wg.Wait()
	return err
}

func amqpHeaders(table amqp.Table) map[string]string {
	if len(table) == 0 {
		return nil
	}
	out := make(map[string]string, len(table))
	for k, v := range table {
		switch val := v.(type) {
		case string:
			out[k] = val
		case []byte:
			out[k] = string(val)
		}
	}
	return out
}
