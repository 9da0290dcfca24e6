package messaging

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
)

// Memory is an in-process broker with nsq-like fan out: every consumer
// group of a topic gets each message once, and consumers sharing a group
// compete for it. Nothing is persisted and a nack drops the message.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[string]*memoryQueue
	closed bool
	done   chan struct{}
	seq    atomic.Uint64
}

type memoryQueue struct {
	ch   chan *memoryMessage
	gone chan struct{}
	refs int
}

func NewMemory() *Memory {
	return &Memory{
		topics: map[string]map[string]*memoryQueue{},
		done:   make(chan struct{}),
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *Memory) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	queues := make([]*memoryQueue, 0, len(m.topics[topic]))
	for _, q := range m.topics[topic] {
		queues = append(queues, q)
	}
	m.mu.RUnlock()

	id := strconv.FormatUint(m.seq.Add(1), 10)
	for _, q := range queues {
		msg := &memoryMessage{
			id:      id,
			topic:   topic,
			body:    append([]byte(nil), env.Body...),
			headers: cloneHeaders(env.Headers),
		}

		select {
		case q.ch <- msg:
		case <-q.gone:
		case <-m.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (m *Memory) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := checkConsume(ctx, topic, h); err != nil {
		return err
	}

	co := newConsumeOptions(opts)
	q, err := m.join(topic, co.group, co.maxInFlight)
	if err != nil {
		return err
	}
	defer m.leave(topic, co.group, q)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-q.ch:
					if err := deliver(ctx, "memory", msg, h, co); err != nil {
						slog.WarnContext(ctx, "memory message dropped", "topic", topic, "msg_id", msg.id, "error", err)
					}
				}
			}
		})
	}
	wg.Wait()

	return nil
}

// consumers reports how many Consume calls are attached to topic.
func (m *Memory) consumers(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, q := range m.topics[topic] {
		n += q.refs
	}
	return n
}

func (m *Memory) join(topic, group string, buffer int) (*memoryQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]*memoryQueue{}
		m.topics[topic] = groups
	}

	q, ok := groups[group]
	if !ok {
		q = &memoryQueue{
			ch:   make(chan *memoryMessage, buffer),
			gone: make(chan struct{}),
		}
		groups[group] = q
	}
	q.refs++

	return q, nil
}

func (m *Memory) leave(topic, group string, q *memoryQueue) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.refs--
	if q.refs > 0 {
		return
	}

	close(q.gone)
	delete(m.topics[topic], group)
	if len(m.topics[topic]) == 0 {
		delete(m.topics, topic)
	}
}

type memoryMessage struct {
	settleOnce

	id      string
	topic   string
	body    []byte
	headers map[string]string
}

func (m *memoryMessage) ID() string               { return m.id }
func (m *memoryMessage) Topic() string            { return m.topic }
func (m *memoryMessage) Body() []byte             { return m.body }
func (m *memoryMessage) Header(key string) string { return m.headers[key] }

func (m *memoryMessage) Ack(context.Context) error {
	m.claim()
	return nil
}

func (m *memoryMessage) Nack(context.Context) error {
	m.claim()
	return nil
}
