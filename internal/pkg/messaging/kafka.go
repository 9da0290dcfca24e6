package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

type KafkaConfig struct {
	Brokers     []string
	ClientID    string
	DialTimeout time.Duration
}

// Kafka writes every topic through one writer and opens a reader per
// Consume call. The consumer group becomes the kafka group id.
type Kafka struct {
	cfg    KafkaConfig
	writer *kafka.Writer

	mu      sync.Mutex
	readers map[*kafka.Reader]struct{}
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Transport: &kafka.Transport{
				ClientID:    cfg.ClientID,
				DialTimeout: cfg.DialTimeout,
			},
		},
		readers: map[*kafka.Reader]struct{}{},
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	readers := make([]*kafka.Reader, 0, len(k.readers))
	for r := range k.readers {
		readers = append(readers, r)
	}
	k.mu.Unlock()

	var err error
	for _, r := range readers {
		err = errors.Join(err, r.Close())
	}

	return errors.Join(err, k.writer.Close())
}

func (k *Kafka) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	msg := kafka.Message{Topic: topic, Key: env.Key, Value: env.Body}
	for key, v := range cloneHeaders(env.Headers) {
		msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return nil
}

func (k *Kafka) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := checkConsume(ctx, topic, h); err != nil {
		return err
	}

	co := newConsumeOptions(opts)
	if co.group == "" {
		return ErrGroupRequired
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:       k.cfg.Brokers,
		GroupID:       co.group,
		Topic:         topic,
		MaxBytes:      10e6,
		QueueCapacity: co.maxInFlight,
		Dialer: &kafka.Dialer{
			ClientID:  k.cfg.ClientID,
			Timeout:   k.cfg.DialTimeout,
			DualStack: true,
		},
	})
	if err := k.track(r); err != nil {
		return errors.Join(err, r.Close())
	}
	defer k.untrack(r)

	feed := make(chan kafka.Message, co.maxInFlight)
	wg := workers(co.concurrency, feed, func(m kafka.Message) {
		msg := &kafkaMessage{reader: r, msg: m}
		if err := deliver(ctx, "kafka", msg, h, co); err != nil {
			slog.WarnContext(ctx, "kafka message handler failed", "topic", topic, "offset", m.Offset, "error", err)
		}
	})

	var fetchErr error
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				fetchErr = fmt.Errorf("messaging: kafka fetch: %w", err)
			}
			break
		}

		select {
		case feed <- m:
		case <-ctx.Done():
		}
	}

	close(feed)
	wg.Wait()

	return errors.Join(fetchErr, r.Close())
}

func (k *Kafka) track(r *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return ErrClosed
	}
	k.readers[r] = struct{}{}
	return nil
}

func (k *Kafka) untrack(r *kafka.Reader) {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.readers, r)
}

type kafkaMessage struct {
	settleOnce

	reader *kafka.Reader
	msg    kafka.Message
}

func (m *kafkaMessage) ID() string {
	return m.msg.Topic + "/" + strconv.Itoa(m.msg.Partition) + "/" + strconv.FormatInt(m.msg.Offset, 10)
}

func (m *kafkaMessage) Topic() string { return m.msg.Topic }
func (m *kafkaMessage) Body() []byte  { return m.msg.Value }

func (m *kafkaMessage) Header(key string) string {
	for _, h := range m.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (m *kafkaMessage) Ack(ctx context.Context) error {
	if !m.claim() {
		return nil
	}
	return m.reader.CommitMessages(ctx, m.msg)
}

// Nack leaves the offset uncommitted. A later commit on the same partition
// still moves past it.
func (m *kafkaMessage) Nack(context.Context) error {
	m.claim()
	return nil
}
