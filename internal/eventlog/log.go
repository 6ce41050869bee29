// Package eventlog holds the append-only trail of committed registry events
// and fans them out to observers and downstream sinks.
package eventlog

import (
	"context"
	"sync"
	"sync/atomic"

	"shopcore/pkg/domain"
)

// Sink receives committed events asynchronously, in commit order, from the
// log's dispatcher goroutine.
type Sink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Log is the append-only event trail. Emit is called by the store while its
// mutex is held, so it only assigns sequence numbers, appends, and enqueues;
// slow sinks run behind a single dispatcher goroutine that preserves order.
type Log struct {
	mu     sync.RWMutex
	seq    uint64
	events []domain.Event
	subs   map[int]chan domain.Event
	nextID int

	sinks   []Sink
	queue   chan domain.Event
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Uint64

	onSinkError func(err error)
}

var _ domain.EventSink = (*Log)(nil)

// Option customizes log construction.
type Option func(*Log)

// WithSink registers a downstream sink fed by the dispatcher.
func WithSink(sink Sink) Option {
	return func(l *Log) {
		if sink != nil {
			l.sinks = append(l.sinks, sink)
		}
	}
}

// WithQueueCapacity sets the dispatcher queue size (default 1024).
func WithQueueCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.queue = make(chan domain.Event, n)
		}
	}
}

// WithSinkErrorHandler installs a callback invoked when a sink rejects an
// event. Delivery continues; the trail itself is already committed.
func WithSinkErrorHandler(fn func(err error)) Option {
	return func(l *Log) {
		l.onSinkError = fn
	}
}

// New constructs a log and starts its dispatcher.
func New(opts ...Option) *Log {
	l := &Log{
		subs:  make(map[int]chan domain.Event),
		queue: make(chan domain.Event, 1024),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.dispatch()
	return l
}

// Emit appends committed events to the trail, assigning sequence numbers in
// commit order, then pushes them to subscribers and the sink queue without
// blocking. Implements domain.EventSink.
func (l *Log) Emit(events []domain.Event) {
	if len(events) == 0 || l.closed.Load() {
		return
	}
	l.mu.Lock()
	stamped := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		l.seq++
		ev.Seq = l.seq
		l.events = append(l.events, ev)
		stamped = append(stamped, ev)
	}
	for _, ev := range stamped {
		for _, ch := range l.subs {
			select {
			case ch <- ev:
			default: // subscriber too slow, drop for it
			}
		}
	}
	l.mu.Unlock()

	for _, ev := range stamped {
		select {
		case l.queue <- ev:
		default:
			l.dropped.Add(1)
		}
	}
}

func (l *Log) dispatch() {
	ctx := context.Background()
	for {
		select {
		case ev := <-l.queue:
			l.deliver(ctx, ev)
		case <-l.done:
			// drain what is already queued
			for {
				select {
				case ev := <-l.queue:
					l.deliver(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

func (l *Log) deliver(ctx context.Context, ev domain.Event) {
	for _, sink := range l.sinks {
		if err := sink.Publish(ctx, ev); err != nil && l.onSinkError != nil {
			l.onSinkError(err)
		}
	}
}

// Subscribe registers an observer channel with the given buffer. The cancel
// function removes the subscription and closes the channel.
func (l *Log) Subscribe(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domain.Event, buffer)
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Events returns a copy of the whole trail.
func (l *Log) Events() []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Recent returns the newest n entries, oldest first.
func (l *Log) Recent(n int) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	out := make([]domain.Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// Len reports the trail length.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Dropped reports how many events could not be queued for sinks.
func (l *Log) Dropped() uint64 {
	return l.dropped.Load()
}

// Close stops the dispatcher after draining the queue. The trail remains
// readable.
func (l *Log) Close() {
	if l.closed.CompareAndSwap(false, true) {
		close(l.done)
	}
}
