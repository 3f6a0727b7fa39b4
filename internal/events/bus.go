package events

import (
	"context"
	"sync"
)

// DefaultCapacity is the ring size used when none is configured.
const DefaultCapacity = 1024

// Observer is told about publishes and lag. Implementations must not block.
type Observer interface {
	EventPublished(kind string)
	EventsLagged(n uint64)
}

type slot struct {
	event Event
	// pending counts receivers that have not read this slot yet; the
	// payload is released once it reaches zero.
	pending int
}

// Bus is a bounded broadcast channel. It is safe for concurrent use.
type Bus struct {
	mu        sync.Mutex
	slots     []slot
	next      uint64 // sequence number of the next publish
	receivers int
	closed    bool
	wake      chan struct{} // closed and replaced on every publish

	observer Observer
}

// Option configures a Bus.
type Option func(*Bus)

// WithObserver reports publishes and lag to o.
func WithObserver(o Observer) Option {
	return func(b *Bus) { b.observer = o }
}

// NewBus creates a bus holding up to capacity unread events.
// A capacity below 1 uses DefaultCapacity.
func NewBus(capacity int, opts ...Option) *Bus {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	b := &Bus{
		slots: make([]slot, capacity),
		wake:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Capacity returns the ring size.
func (b *Bus) Capacity() int {
	return len(b.slots)
}

// Publish queues ev for every current receiver without blocking and
// returns how many receivers it was queued for. With no receivers, or
// after Close, the event is dropped.
func (b *Bus) Publish(ev Event) int {
	b.mu.Lock()
	if b.closed || b.receivers == 0 {
		b.mu.Unlock()
		return 0
	}

	b.slots[b.next%uint64(len(b.slots))] = slot{event: ev, pending: b.receivers}
	b.next++
	n := b.receivers

	close(b.wake)
	b.wake = make(chan struct{})
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.EventPublished(string(ev.Kind))
	}
	return n
}

// Receivers returns the number of open receivers.
func (b *Bus) Receivers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receivers
}

// Close stops the bus. Receivers drain what is queued and then get ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.wake)
}

// SubscribeAll returns a receiver of unredacted events for in-process
// consumers. It starts at the next published event.
func (b *Bus) SubscribeAll() *Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers++
	return &Receiver{bus: b, next: b.next}
}

// Subscribe returns a client view filtered for userID.
func (b *Bus) Subscribe(userID string) *Subscription {
	return &Subscription{rx: b.SubscribeAll(), userID: userID}
}

// oldestLocked is the sequence number of the oldest retained slot.
func (b *Bus) oldestLocked() uint64 {
	capacity := uint64(len(b.slots))
	if b.next > capacity {
		return b.next - capacity
	}
	return 0
}

// Receiver reads every event published after it was created.
// A Receiver must be used from one goroutine at a time.
type Receiver struct {
	bus    *Bus
	next   uint64
	closed bool
}

// Recv blocks until an event is available, ctx is done, or the bus is
// closed and drained. After falling more than the capacity behind it
// returns a *LaggedError once and then continues from the oldest event.
func (r *Receiver) Recv(ctx context.Context) (Event, error) {
	b := r.bus
	for {
		b.mu.Lock()
		if r.closed {
			b.mu.Unlock()
			return Event{}, ErrReceiverClosed
		}

		if oldest := b.oldestLocked(); r.next < oldest {
			skipped := oldest - r.next
			r.next = oldest
			b.mu.Unlock()
			if b.observer != nil {
				b.observer.EventsLagged(skipped)
			}
			return Event{}, &LaggedError{Skipped: skipped}
		}

		if r.next < b.next {
			s := &b.slots[r.next%uint64(len(b.slots))]
			ev := s.event
			s.pending--
			if s.pending <= 0 {
				s.event = Event{}
			}
			r.next++
			b.mu.Unlock()
			return ev, nil
		}

		if b.closed {
			b.mu.Unlock()
			return Event{}, ErrClosed
		}
		wake := b.wake
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-wake:
		}
	}
}

// Close detaches the receiver and releases its claim on queued events.
// It is safe to call more than once.
func (r *Receiver) Close() {
	b := r.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	b.receivers--

	start := r.next
	if oldest := b.oldestLocked(); start < oldest {
		start = oldest
	}
	for seq := start; seq < b.next; seq++ {
		s := &b.slots[seq%uint64(len(b.slots))]
		s.pending--
		if s.pending <= 0 {
			s.event = Event{}
		}
	}
}

// Subscription is a per-user view of the bus.
type Subscription struct {
	rx     *Receiver
	userID string
}

// UserID returns the subscriber's user id.
func (s *Subscription) UserID() string {
	return s.userID
}

// Next returns the next message, redacted unless it originated from the
// subscriber. Errors are those of Receiver.Recv.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	ev, err := s.rx.Recv(ctx)
	if err != nil {
		return Message{}, err
	}
	return ev.MessageFor(s.userID), nil
}

// Close detaches the subscription from the bus.
func (s *Subscription) Close() {
	s.rx.Close()
}
