package messaging

type consumeOptions struct {
	group       string
	concurrency int
	maxInFlight int
	manualAck   bool
}

// ConsumeOption tunes a single Consume call.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts []ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency < 1 {
		co.concurrency = 1
	}
	if co.maxInFlight < co.concurrency {
		co.maxInFlight = co.concurrency
	}
	return co
}

// WithGroup names the durable consumer. Each driver maps it to its own
// concept: nsq channel, nats queue group, kafka group id, pubsub
// subscription.
func WithGroup(name string) ConsumeOption {
	return func(o *consumeOptions) { o.group = name }
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxInFlight caps unsettled deliveries. It never drops below the
// concurrency.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}

// WithManualAck leaves settling to the handler.
func WithManualAck() ConsumeOption {
	return func(o *consumeOptions) { o.manualAck = true }
}
