//go:build integration

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/logger"
	"orderflow/pkg/models"
)

func TestKafka_PublishedRecordReachesConsumer(t *testing.T) {
	ctx := context.Background()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("orderflow"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	const topic = "order-item-reserve"
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	require.NoError(t, conn.Close())

	cfg := config.BrokerConfig{
		Type:             constants.BrokerTypeKafka,
		ConnectionString: brokers[0],
		Topic:            topic,
		GroupID:          "order-items-reserver-it",
	}

	producer := NewKafkaProducer(cfg, logger.NopLogger())
	defer producer.Close()

	body := []byte(`{"orderId":11,"finalPrice":3.5}`)
	require.NoError(t, producer.Publish(ctx, topic, []byte("11"), body))

	consumer := NewKafkaConsumer(cfg, logger.NopLogger())
	defer consumer.Close()

	received := make(chan models.Message, 1)
	consumeCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	go func() {
		_ = consumer.Consume(consumeCtx, topic, func(ctx context.Context, msg models.Message) error {
			received <- msg
			return nil
		})
	}()

	select {
	case msg := <-received:
		assert.Equal(t, body, msg.Body)
		assert.Equal(t, []byte("11"), msg.Key)
		assert.Equal(t, topic, msg.Topic)
	case <-consumeCtx.Done():
		t.Fatal("record was not consumed in time")
	}
}
