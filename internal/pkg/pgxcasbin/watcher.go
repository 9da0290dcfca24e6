package pgxcasbin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const defaultChannel = "casbin_policy_changed"

var channelPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

var _ persist.Watcher = (*Watcher)(nil)

type OptionWatcher struct {
	// Channel is the postgres LISTEN channel, a lower-case identifier.
	Channel string
	// LocalID tags outgoing messages. Defaults to a random uuid.
	LocalID string
	// NotifySelf delivers this instance's own messages to its callback.
	NotifySelf bool
	Verbose    bool
}

type message struct {
	Method string `json:"method"`
	ID     string `json:"id"`
}

const methodUpdate = "Update"

// Watcher publishes a reload message on every policy change and runs the
// update callback when another instance publishes one.
type Watcher struct {
	opt  OptionWatcher
	pool *pgxpool.Pool

	mu       sync.RWMutex
	callback func(string)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcherWithPool starts listening in the background. The listener
// reconnects with capped fibonacci backoff until Close or ctx ends.
func NewWatcherWithPool(ctx context.Context, pool *pgxpool.Pool, opt OptionWatcher) (*Watcher, error) {
	if opt.Channel == "" {
		opt.Channel = defaultChannel
	}
	if !channelPattern.MatchString(opt.Channel) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, opt.Channel)
	}
	if opt.LocalID == "" {
		opt.LocalID = uuid.NewString()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pgxcasbin: ping: %w", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	w := &Watcher{opt: opt, pool: pool, cancel: cancel, done: make(chan struct{})}
	go w.run(lctx)

	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	backoff := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := w.listen(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		slog.WarnContext(ctx, "casbin watcher lost connection", "channel", w.opt.Channel, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("casbin watcher stopped", "channel", w.opt.Channel, "error", err)
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+w.opt.Channel); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		w.dispatch(n.Payload)
	}
}

func (w *Watcher) dispatch(payload string) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		slog.Warn("casbin watcher ignored malformed payload", "payload", payload, "error", err)
		return
	}
	if m.ID == w.opt.LocalID && !w.opt.NotifySelf {
		return
	}
	if w.opt.Verbose {
		slog.Info("casbin watcher received update", "channel", w.opt.Channel, "from", m.ID)
	}

	w.mu.RLock()
	cb := w.callback
	w.mu.RUnlock()
	if cb == nil {
		slog.Warn("casbin watcher has no callback", "channel", w.opt.Channel)
		return
	}
	cb(payload)
}

func (w *Watcher) SetUpdateCallback(cb func(string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = cb
	return nil
}

func (w *Watcher) Update() error {
	b, err := json.Marshal(message{Method: methodUpdate, ID: w.opt.LocalID})
	if err != nil {
		return err
	}
	_, err = w.pool.Exec(context.Background(), "SELECT pg_notify($1, $2)", w.opt.Channel, string(b))
	return err
}

// Close stops the listener and waits for it to exit.
func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

// DefaultCallback reloads the whole policy on every update message.
func DefaultCallback(e casbin.IEnforcer) func(string) {
	return func(payload string) {
		var m message
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			slog.Error("casbin watcher callback got malformed payload", "payload", payload, "error", err)
			return
		}
		if m.Method != methodUpdate {
			slog.Error("casbin watcher callback failed", "error", fmt.Errorf("%w: %s", ErrUnknownUpdateType, m.Method))
			return
		}
		if err := e.LoadPolicy(); err != nil {
			slog.Error("casbin policy reload failed", "error", err)
		}
	}
}
