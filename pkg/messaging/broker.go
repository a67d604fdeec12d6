package messaging

import (
	"context"
)

// Broker defines the interface for message brokers used to relay schedule
// change events to other processes (e.g. the display frontends).
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the broker wire envelope.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
