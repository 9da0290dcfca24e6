package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

const natsFlushTimeout = 5 * time.Second

type NATSConfig struct {
	URL                  string
	Name                 string
	Timeout              time.Duration
	MaxReconnects        int
	ReconnectWait        time.Duration
	PingInterval         time.Duration
	MaxPingsOutstanding  int
	RetryOnFailedConnect bool
}

func (c NATSConfig) options() []nats.Option {
	opts := []nats.Option{
		nats.Name(c.Name),
		nats.MaxReconnects(c.MaxReconnects),
		nats.RetryOnFailedConnect(c.RetryOnFailedConnect),
	}
	if c.Timeout > 0 {
		opts = append(opts, nats.Timeout(c.Timeout))
	}
	if c.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(c.ReconnectWait))
	}
	if c.PingInterval > 0 {
		opts = append(opts, nats.PingInterval(c.PingInterval))
	}
	if c.MaxPingsOutstanding > 0 {
		opts = append(opts, nats.MaxPingsOutstanding(c.MaxPingsOutstanding))
	}
	return opts
}

// NATS uses core nats subjects. A consumer group becomes a queue group, so
// one member of the group gets each message.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.options()...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains every subscription before closing the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	return n.conn.Drain()
}

func (n *NATS) Publish(ctx context.Context, topic string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	msg := nats.NewMsg(topic)
	msg.Data = env.Body
	for k, v := range cloneHeaders(env.Headers) {
		msg.Header.Set(k, v)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushTimeout(natsFlushTimeout); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}

	return nil
}

func (n *NATS) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := checkConsume(ctx, topic, h); err != nil {
		return err
	}

	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return ErrClosed
	}

	co := newConsumeOptions(opts)
	inbox := make(chan *nats.Msg, co.maxInFlight)

	sub, err := n.conn.ChanQueueSubscribe(topic, co.group, inbox)
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	wg := workers(co.concurrency, inbox, func(m *nats.Msg) {
		msg := &natsMessage{msg: m}
		if err := deliver(ctx, "nats", msg, h, co); err != nil {
			slog.WarnContext(ctx, "nats message handler failed", "subject", topic, "error", err)
		}
	})

	if err := n.conn.FlushTimeout(natsFlushTimeout); err != nil {
		err = fmt.Errorf("messaging: nats flush: %w", err)
		return errors.Join(err, stopNATS(sub, inbox, wg))
	}

	<-ctx.Done()

	return stopNATS(sub, inbox, wg)
}

func stopNATS(sub *nats.Subscription, inbox chan *nats.Msg, wg *sync.WaitGroup) error {
	err := sub.Unsubscribe()
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
		err = nil
	}
	close(inbox)
	wg.Wait()
	return err
}

type natsMessage struct {
	settleOnce

	msg *nats.Msg
}

func (m *natsMessage) ID() string               { return m.msg.Header.Get(nats.MsgIdHdr) }
func (m *natsMessage) Topic() string            { return m.msg.Subject }
func (m *natsMessage) Body() []byte             { return m.msg.Data }
func (m *natsMessage) Header(key string) string { return m.msg.Header.Get(key) }

// Ack and Nack only reach the server for jetstream deliveries; plain
// subscriptions have nothing to settle.
func (m *natsMessage) Ack(context.Context) error {
	if !m.claim() {
		return nil
	}
	return ignoreNoReply(m.msg.Ack())
}

func (m *natsMessage) Nack(context.Context) error {
	if !m.claim() {
		return nil
	}
	return ignoreNoReply(m.msg.Nak())
}

func ignoreNoReply(err error) error {
	if errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound) {
		return nil
	}
	return err
}
