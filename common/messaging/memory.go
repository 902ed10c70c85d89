package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBus is an in-process Client used in tests and single-binary
// development setups. Delivery is synchronous: Publish invokes one
// handler per queue group on the subject before returning.
type MemoryBus struct {
	mu        sync.Mutex
	subs      map[string][]*memorySub
	published map[string][][]byte
	failures  map[string]error
	closed    bool
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs:      make(map[string][]*memorySub),
		published: make(map[string][][]byte),
		failures:  make(map[string]error),
	}
}

// FailWith makes subsequent publishes to subject fail with err, wrapped
// in ErrBusUnavailable. Pass nil to clear.
func (b *MemoryBus) FailWith(subject string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, subject)
		return
	}
	b.failures[subject] = err
}

// Published returns copies of all payloads published to subject.
func (b *MemoryBus) Published(subject string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.published[subject]))
	copy(out, b.published[subject])
	return out
}

// Publish records the payload and synchronously delivers it to one
// subscriber per queue group on the subject.
func (b *MemoryBus) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("%w: bus closed", ErrBusUnavailable)
	}
	if err := b.failures[subject]; err != nil {
		b.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrBusUnavailable, err)
	}

	b.published[subject] = append(b.published[subject], append([]byte(nil), data...))

	// One handler per queue group, mirroring broker queue semantics.
	seen := make(map[string]bool)
	var targets []*memorySub
	for _, s := range b.subs[subject] {
		if s.valid && !seen[s.queue] {
			seen[s.queue] = true
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	msg := &Message{Subject: subject, Data: data, Timestamp: time.Now().UTC()}
	for _, s := range targets {
		// Handler errors are the subscriber's concern, as with a real broker.
		_ = s.handler(ctx, msg)
	}
	return nil
}

// QueueSubscribe registers a handler for the subject within a queue group.
func (b *MemoryBus) QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("%w: bus closed", ErrBusUnavailable)
	}

	s := &memorySub{bus: b, subject: subject, queue: queue, handler: handler, valid: true}
	b.subs[subject] = append(b.subs[subject], s)
	return s, nil
}

// Drain is equivalent to Close for the synchronous in-process bus.
func (b *MemoryBus) Drain() error { return b.Close() }

// Close invalidates all subscriptions and rejects further publishes.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, subs := range b.subs {
		for _, s := range subs {
			s.valid = false
		}
	}
	return nil
}

// IsConnected reports whether the bus accepts traffic.
func (b *MemoryBus) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

type memorySub struct {
	bus     *MemoryBus
	subject string
	queue   string
	handler MessageHandler
	valid   bool
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.valid = false
	return nil
}

func (s *memorySub) Subject() string { return s.subject }

func (s *memorySub) IsValid() bool {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.valid
}
