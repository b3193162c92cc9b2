// Package messaging defines the exchange a queue owner hands packed batches
// to and receives them from. Implementations frame and move the payload; the
// queue only produces and consumes model.Batch values.
package messaging

import (
	"context"
)

// Queue is an exchange of payloads of type T.
type Queue[T any] interface {
	// Publish hands a payload to the exchange.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a payload is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a payload retrieved from a Queue.
type Message[T any] interface {
	// ID identifies the message across redeliveries.
	ID() string

	// T returns the payload.
	T() *T

	// Ack confirms the payload was applied.
	Ack() error

	// Nack reports the payload could not be applied; the exchange may redeliver it.
	Nack(err error) error
}
