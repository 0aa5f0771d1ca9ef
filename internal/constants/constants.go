package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout     = 10 * time.Second
	DefaultFallbackTimeout = 30 * time.Second
)

const (
	BrokerTypeKafka    = "kafka"
	BrokerTypeRabbitMQ = "rabbitmq"
)

const (
	SinkTypeMongoDB  = "mongodb"
	SinkTypePostgres = "postgres"
)

const (
	NotifyTypeRedis = "redis"
	NotifyTypeLog   = "log"
)

const (
	DefaultReserveTopic      = "order-item-reserve"
	DefaultGroupID           = "order-items-reserver"
	DefaultContainer         = "orders"
	DefaultSinkDatabase      = "orderflow"
	DefaultMailQueue         = "mail:outbox"
	DefaultRecipient         = "to@test.com"
	DefaultMaxUploadAttempts = 3
	DefaultConsumerWorkers   = 16
)

const (
	PartitionKeyPrefix = "part-key-"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	ServiceOrder    = "order-service"
	ServiceReserver = "reserver-service"
	ServiceDelivery = "delivery-service"
)
