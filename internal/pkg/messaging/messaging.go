// Package messaging moves domain events between modules through a pluggable
// broker. Business code only sees Messaging, Envelope and Message; the driver
// (memory, nsq, nats, kafka or google-pubsub) is picked from configuration.
package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrGroupRequired   = errors.New("messaging: consumer group is required")
	ErrClosed          = errors.New("messaging: broker is closed")
)

// Messaging publishes envelopes and runs consumers against one broker.
type Messaging interface {
	io.Closer

	Publish(ctx context.Context, topic string, env Envelope) error

	// Consume blocks until ctx is done, the broker is closed, or the
	// subscription fails.
	Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error
}

// Envelope is an outgoing message. Headers survive every driver, including
// the ones without native header support.
type Envelope struct {
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Message is a delivered envelope.
type Message interface {
	ID() string
	Topic() string
	Body() []byte
	Header(key string) string

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// Handler processes one message. With auto ack on (the default) a nil error
// acks and anything else nacks.
type Handler func(ctx context.Context, msg Message) error

func checkConsume(ctx context.Context, topic string, h Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if h == nil {
		return ErrHandlerRequired
	}
	return nil
}
