// Package memory provides an in-process messaging.Queue backed by a buffered
// channel. It moves batches between queue owners inside one process, for
// tests and single-node drivers.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/viant/circle/internal/clock"
	"github.com/viant/circle/internal/idgen"
	"github.com/viant/circle/service/messaging"
)

// ErrProcessed is returned when a message is acknowledged twice.
var ErrProcessed = errors.New("memory: message already processed")

// Config for the in-memory exchange.
type Config struct {
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries"`
	RetryDelay  time.Duration `json:"retryDelay" yaml:"retryDelay"`
	DeadLetter  bool          `json:"deadLetter" yaml:"deadLetter"`
	QueueBuffer int           `json:"queueBuffer" yaml:"queueBuffer"`
}

// DefaultConfig returns the default exchange configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		DeadLetter:  true,
		QueueBuffer: 64,
	}
}

// Message is a payload in flight.
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	attempt   int
	createdAt time.Time
	mu        sync.Mutex
	processed bool
	lastErr   error
}

// ID returns the message id.
func (m *Message[T]) ID() string { return m.id }

// T returns the payload.
func (m *Message[T]) T() *T { return &m.payload }

// Attempt returns the zero based delivery attempt.
func (m *Message[T]) Attempt() int { return m.attempt }

// CreatedAt returns when this delivery was enqueued.
func (m *Message[T]) CreatedAt() time.Time { return m.createdAt }

// Err returns the error passed to Nack, if any.
func (m *Message[T]) Err() error { return m.lastErr }

// Ack marks the message as applied.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	return nil
}

// Nack redelivers the message until MaxRetries is exceeded, then moves it to
// the dead letter list when enabled. A redelivery that finds the buffer full
// is dead-lettered as well.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	m.lastErr = err

	if m.attempt < m.queue.config.MaxRetries {
		next := &Message[T]{
			id:        m.id,
			payload:   m.payload,
			queue:     m.queue,
			attempt:   m.attempt + 1,
			createdAt: clock.Now(),
			lastErr:   err,
		}
		if m.queue.config.RetryDelay <= 0 {
			m.queue.redeliver(next)
			return nil
		}
		time.AfterFunc(m.queue.config.RetryDelay, func() { m.queue.redeliver(next) })
		return nil
	}
	m.queue.deadLetter(m)
	return nil
}

// Queue is an in-memory messaging.Queue.
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	dlq      []*Message[T]
	dlqMu    sync.Mutex
}

// NewQueue creates an exchange.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish enqueues a copy of *t, blocking while the buffer is full.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{
		id:        idgen.New(),
		payload:   *t,
		queue:     q,
		createdAt: clock.Now(),
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume waits for the next message.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of messages waiting.
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns the messages that exhausted their retries.
func (q *Queue[T]) DeadLetters() []*Message[T] {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]*Message[T], len(q.dlq))
	copy(ret, q.dlq)
	return ret
}

func (q *Queue[T]) redeliver(msg *Message[T]) {
	select {
	case q.messages <- msg:
	default:
		q.deadLetter(msg)
	}
}

func (q *Queue[T]) deadLetter(msg *Message[T]) {
	if !q.config.DeadLetter {
		return
	}
	q.dlqMu.Lock()
	q.dlq = append(q.dlq, msg)
	q.dlqMu.Unlock()
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
