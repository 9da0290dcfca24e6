package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	ErrNSQProducerRequired = errors.New("messaging: nsq producer address is required")
	ErrNSQConsumerRequired = errors.New("messaging: nsq nsqd or lookupd addresses are required")
)

type NSQConfig struct {
	ProducerAddr string
	NSQDAddrs    []string
	LookupdAddrs []string

	DialTimeout         time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	LookupdPollInterval time.Duration
	DefaultRequeueDelay time.Duration
	MaxRequeueDelay     time.Duration
	MaxAttempts         uint16
}

func (c NSQConfig) build(maxInFlight int) *nsq.Config {
	cfg := nsq.NewConfig()
	cfg.MaxInFlight = max(maxInFlight, 1)

	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&cfg.DialTimeout, c.DialTimeout)
	set(&cfg.ReadTimeout, c.ReadTimeout)
	set(&cfg.WriteTimeout, c.WriteTimeout)
	set(&cfg.LookupdPollInterval, c.LookupdPollInterval)
	set(&cfg.DefaultRequeueDelay, c.DefaultRequeueDelay)
	set(&cfg.MaxRequeueDelay, c.MaxRequeueDelay)
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}

	return cfg
}

// NSQ maps a consumer group to an nsq channel. nsq has no message headers,
// so envelopes travel inside a small JSON frame.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer

	mu        sync.Mutex
	consumers map[*nsq.Consumer]struct{}
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	n := &NSQ{cfg: cfg, consumers: map[*nsq.Consumer]struct{}{}}

	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, cfg.build(1))
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := make([]*nsq.Consumer, 0, len(n.consumers))
	for c := range n.consumers {
		consumers = append(consumers, c)
	}
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}

	return nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if n.producer == nil {
		return ErrNSQProducerRequired
	}

	body, err := encodeNSQFrame(env)
	if err != nil {
		return fmt.Errorf("messaging: nsq encode: %w", err)
	}

	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := checkConsume(ctx, topic, h); err != nil {
		return err
	}

	co := newConsumeOptions(opts)
	if co.group == "" {
		return ErrGroupRequired
	}
	if len(n.cfg.NSQDAddrs) == 0 && len(n.cfg.LookupdAddrs) == 0 {
		return ErrNSQConsumerRequired
	}

	consumer, err := nsq.NewConsumer(topic, co.group, n.cfg.build(co.maxInFlight))
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()

		msg := decodeNSQFrame(topic, m)
		if err := deliver(ctx, "nsq", msg, h, co); err != nil {
			slog.WarnContext(ctx, "nsq message handler failed", "topic", topic, "channel", co.group, "attempts", m.Attempts, "error", err)
		}
		return nil
	}), co.concurrency)

	if err := n.track(consumer); err != nil {
		return err
	}
	defer n.untrack(consumer)

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.NSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
	case <-consumer.StopChan:
	}

	return nil
}

func (n *NSQ) track(c *nsq.Consumer) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	n.consumers[c] = struct{}{}
	return nil
}

func (n *NSQ) untrack(c *nsq.Consumer) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.consumers, c)
}

type nsqFrame struct {
	Frame   int               `json:"_frame"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

func encodeNSQFrame(env Envelope) ([]byte, error) {
	return json.Marshal(nsqFrame{Frame: 1, Headers: cloneHeaders(env.Headers), Body: env.Body})
}

// decodeNSQFrame accepts raw payloads from producers that do not frame.
func decodeNSQFrame(topic string, m *nsq.Message) *nsqMessage {
	msg := &nsqMessage{topic: topic, msg: m, body: m.Body}

	var f nsqFrame
	if err := json.Unmarshal(m.Body, &f); err == nil && f.Frame == 1 {
		msg.body = f.Body
		msg.headers = f.Headers
	}

	return msg
}

type nsqMessage struct {
	settleOnce

	topic   string
	msg     *nsq.Message
	body    []byte
	headers map[string]string
}

func (m *nsqMessage) ID() string               { return string(m.msg.ID[:]) }
func (m *nsqMessage) Topic() string            { return m.topic }
func (m *nsqMessage) Body() []byte             { return m.body }
func (m *nsqMessage) Header(key string) string { return m.headers[key] }

func (m *nsqMessage) Ack(context.Context) error {
	if m.claim() {
		m.msg.Finish()
	}
	return nil
}

// Nack requeues with the consumer's backoff delay.
func (m *nsqMessage) Nack(context.Context) error {
	if m.claim() {
		m.msg.Requeue(-1)
	}
	return nil
}
