package models

import "time"

// Message is a broker-neutral view of one queued delivery.
type Message struct {
	Topic     string
	Key       []byte
	Body      []byte
	Headers   map[string]string
	Timestamp time.Time
}
