package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultMemoryBuffer = 256

// MemoryBroker is an in-process backend. Each channel is a buffered queue
// shared by its subscribers, so every message is handled once. Failed
// messages are dropped.
type MemoryBroker struct {
	mu     sync.Mutex
	queues map[string]chan Message
	buffer int
	done   chan struct{}
	once   sync.Once
}

// NewMemoryBroker returns a broker whose channels buffer up to buffer
// messages. A non-positive buffer selects the default.
func NewMemoryBroker(buffer int) *MemoryBroker {
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}
	return &MemoryBroker{
		queues: make(map[string]chan Message),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

func (b *MemoryBroker) queue(channel string) chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[channel]
	if !ok {
		q = make(chan Message, b.buffer)
		b.queues[channel] = q
	}
	return q
}

// Publish enqueues data, blocking while the channel's buffer is full.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}
	select {
	case <-b.done:
		return "", ErrClosed
	default:
	}

	msg := Message{
		ID:         uuid.NewString(),
		Data:       append([]byte(nil), data...),
		Attributes: attrs,
	}
	select {
	case b.queue(channel) <- msg:
		return msg.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-b.done:
		return "", ErrClosed
	}
}

// Subscribe handles messages until ctx is done or the broker is closed.
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}
	q := b.queue(channel)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case msg := <-q:
			_ = handler(ctx, msg)
		}
	}
}

// Close stops subscribers. Buffered messages are discarded.
func (b *MemoryBroker) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
