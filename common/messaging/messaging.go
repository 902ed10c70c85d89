// Package messaging defines the broker-agnostic publish/subscribe
// interfaces the pipeline is built on. Services depend on these
// interfaces, never on a concrete broker client.
package messaging

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
)

// ErrBusUnavailable wraps transport-level publish and subscribe failures.
// Callers test for it with errors.Is.
var ErrBusUnavailable = errors.New("message bus unavailable")

// Message represents a message received from or sent to the bus.
type Message struct {
	// Subject is the channel the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// MessageHandler processes a received message. Returning an error signals
// processing failure; whether that triggers redelivery depends on the
// broker implementation. Delivery is at-least-once, so handlers must
// tolerate duplicates of the same event ID.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription represents an active subscription to a subject.
type Subscription interface {
	// Unsubscribe stops receiving messages on this subscription.
	Unsubscribe() error

	// Subject returns the subject this subscription is listening to.
	Subject() string

	// IsValid reports whether the subscription is still active.
	IsValid() bool
}

// Publisher publishes messages to subjects.
type Publisher interface {
	// Publish sends a message to the specified subject. Transport
	// failures are reported wrapped in ErrBusUnavailable.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases any resources held by the publisher.
	Close() error
}

// Subscriber subscribes to messages on subjects.
type Subscriber interface {
	// QueueSubscribe creates a load-balanced subscription: workers in the
	// same queue group share messages, and re-subscribing with the same
	// group identity resumes from the last acknowledged position rather
	// than from the beginning.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)

	// Close releases any resources and unsubscribes all active subscriptions.
	Close() error
}

// Client combines Publisher and Subscriber. Most services want Client.
type Client interface {
	Publisher
	Subscriber

	// Drain stops accepting new messages but lets in-flight handlers
	// finish before closing the connection.
	Drain() error

	// IsConnected reports whether the client is connected to the broker.
	IsConnected() bool
}

// PublishJSON marshals v and publishes it to the subject.
func PublishJSON(ctx context.Context, p Publisher, subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, subject, data)
}
