package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverNSQ    = "nsq"
	DriverNATS   = "nats"
	DriverKafka  = "kafka"
	DriverPubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// Config selects a driver and carries the settings of every driver; only
// the selected one is read.
type Config struct {
	Driver string
	NSQ    NSQConfig
	NATS   NATSConfig
	Kafka  KafkaConfig
	PubSub PubSubConfig
}

func New(ctx context.Context, cfg Config) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverNSQ:
		return NewNSQ(cfg.NSQ)
	case DriverNATS:
		return NewNATS(cfg.NATS)
	case DriverKafka:
		return NewKafka(cfg.Kafka)
	case DriverPubSub:
		return NewPubSub(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
