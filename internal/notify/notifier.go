package notify

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// Notifier fans events out to subscribed callbacks, synchronously and in
// subscription order. Events are delivered one at a time in the order they
// were posted; at most one goroutine delivers at any moment.
//
// Owners that guard their own state with a lock call Post while holding it
// and Flush after releasing it. A callback may then query the owner, and a
// callback that triggers another Post has that event delivered after the
// current fan-out instead of deadlocking.
type Notifier[T any] struct {
	mu       sync.Mutex
	subs     []*Subscription[T]
	queue    []T
	draining bool
}

// Subscription is a registered callback. Unsubscribe stops further deliveries.
type Subscription[T any] struct {
	notifier  *Notifier[T]
	fn        func(T)
	source    string
	cancelled atomic.Bool
}

// New creates an empty Notifier
func New[T any]() *Notifier[T] {
	return &Notifier[T]{}
}

// Subscribe registers fn to be invoked for every event delivered from now on
func (n *Notifier[T]) Subscribe(fn func(T)) *Subscription[T] {
	// Remember who subscribed so leaked subscriptions are easy to track down
	_, file, line, _ := runtime.Caller(1)

	sub := &Subscription[T]{
		notifier: n,
		fn:       fn,
		source:   fmt.Sprintf("%s:%d", file, line),
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, sub)
	return sub
}

// Unsubscribe removes the subscription. It is safe to call more than once
// and from inside a callback.
func (s *Subscription[T]) Unsubscribe() {
	if s.cancelled.Swap(true) {
		return
	}

	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, sub := range n.subs {
		if sub == s {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

func (s *Subscription[T]) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", s.source),
		slog.Bool("cancelled", s.cancelled.Load()))
}

// Len returns the number of active subscriptions
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Post queues an event without delivering it
func (n *Notifier[T]) Post(event T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.subs) == 0 {
		return
	}
	n.queue = append(n.queue, event)
}

// Flush delivers every queued event. If another Flush is already delivering,
// it returns immediately and the active one picks up the queued events.
func (n *Notifier[T]) Flush() {
	n.mu.Lock()
	if n.draining {
		n.mu.Unlock()
		return
	}
	n.draining = true
	n.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			n.mu.Lock()
			n.draining = false
			n.mu.Unlock()
			panic(r)
		}
	}()

	for {
		event, subs, ok := n.next()
		if !ok {
			return
		}
		for _, sub := range subs {
			if sub.cancelled.Load() {
				continue
			}
			sub.fn(event)
		}
	}
}

// NotifyAll posts and delivers a single event
func (n *Notifier[T]) NotifyAll(event T) {
	n.Post(event)
	n.Flush()
}

// next pops the oldest queued event along with the subscribers to deliver it
// to. When the queue is empty it ends the drain under the same lock, so a
// concurrent Post is never left undelivered.
func (n *Notifier[T]) next() (T, []*Subscription[T], bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.queue) == 0 {
		n.draining = false
		var zero T
		return zero, nil, false
	}

	event := n.queue[0]
	var zero T
	n.queue[0] = zero
	n.queue = n.queue[1:]
	if len(n.queue) == 0 {
		n.queue = nil
	}

	subs := make([]*Subscription[T], len(n.subs))
	copy(subs, n.subs)
	return event, subs, true
}
