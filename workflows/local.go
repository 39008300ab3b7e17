package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-print"
)

// Subscriber handles a triggered event in process.
type Subscriber func(ctx context.Context, evt Event) error

// LocalManager is an in-process Manager. Subscribers registered for an event
// name run sequentially in the calling goroutine. Deliveries that share a
// correlation ID never overlap, except that a subscriber may trigger further
// events for its own correlation ID with the context it was given.
type LocalManager struct {
	mu     sync.RWMutex
	subs   map[string][]Subscriber
	locks  *keyedMutex
	logger auth.Logger
	now    func() time.Time
}

// LocalOption configures a LocalManager.
type LocalOption func(*LocalManager)

// WithLogger sets the logger used by the manager.
func WithLogger(logger auth.Logger) LocalOption {
	return func(m *LocalManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) LocalOption {
	return func(m *LocalManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSubscriber registers sub for the event name.
func WithSubscriber(name string, sub Subscriber) LocalOption {
	return func(m *LocalManager) {
		m.Subscribe(name, sub)
	}
}

var _ Manager = (*LocalManager)(nil)

// NewLocalManager creates an in-process manager.
func NewLocalManager(opts ...LocalOption) *LocalManager {
	m := &LocalManager{
		subs:   make(map[string][]Subscriber),
		locks:  newKeyedMutex(),
		logger: auth.DefaultLogger("WORKFLOWS"),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Subscribe registers sub for the event name. Nil subscribers are ignored.
func (m *LocalManager) Subscribe(name string, sub Subscriber) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[name] = append(m.subs[name], sub)
}

// Subscribers returns how many subscribers are registered for name.
func (m *LocalManager) Subscribers(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[name])
}

// TriggerEvent implements Manager. An event without subscribers is a no-op.
// Every subscriber runs even when an earlier one fails; failures are joined.
func (m *LocalManager) TriggerEvent(ctx context.Context, name string, input any, correlationID string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidEvent
	}

	m.mu.RLock()
	subs := append([]Subscriber(nil), m.subs[name]...)
	m.mu.RUnlock()

	if len(subs) == 0 {
		m.logger.Debug("no workflow subscribed to event", "event", name, "correlation_id", correlationID)
		return nil
	}

	if correlationID != "" && !holdsKey(ctx, correlationID) {
		unlock, err := m.locks.Lock(ctx, correlationID)
		if err != nil {
			return err
		}
		defer unlock()
		ctx = withHeldKey(ctx, correlationID)
	}

	evt := Event{
		Name:          name,
		Input:         input,
		CorrelationID: correlationID,
		TriggeredAt:   m.now(),
	}

	m.logger.Debug("triggering workflow event",
		"event", name,
		"correlation_id", correlationID,
		"subscribers", len(subs),
		"input", print.MaybePrettyJSON(input),
	)

	var errs []error
	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := m.deliver(ctx, sub, evt); err != nil {
			m.logger.Error("workflow subscriber failed", "event", name, "subscriber", i, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *LocalManager) deliver(ctx context.Context, sub Subscriber, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrSubscriberPanic.Clone().WithMetadata(map[string]any{
				"event":          evt.Name,
				"correlation_id": evt.CorrelationID,
				"panic":          fmt.Sprint(r),
			})
		}
	}()
	return sub(ctx, evt)
}

type heldKeysKey struct{}

func holdsKey(ctx context.Context, key string) bool {
	held, _ := ctx.Value(heldKeysKey{}).(map[string]struct{})
	_, ok := held[key]
	return ok
}

func withHeldKey(ctx context.Context, key string) context.Context {
	prev, _ := ctx.Value(heldKeysKey{}).(map[string]struct{})
	held := make(map[string]struct{}, len(prev)+1)
	for k := range prev {
		held[k] = struct{}{}
	}
	held[key] = struct{}{}
	return context.WithValue(ctx, heldKeysKey{}, held)
}

// keyedMutex hands out one lock per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free or ctx is done.
func (k *keyedMutex) Lock(ctx context.Context, key string) (unlock func(), err error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	return func() {
		<-l.ch
		k.release(key, l)
	}, nil
}

func (k *keyedMutex) release(key string, l *refMutex) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
