package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harjot20022001/bug-tracker/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_DeliversInOrder(t *testing.T) {
	broker := NewMemoryBroker(8)
	defer broker.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, body := range []string{"one", "two", "three"} {
		id, err := broker.Publish(ctx, "jobs", []byte(body), map[string]string{"kind": "test"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	var got []string
	err := broker.Subscribe(ctx, "jobs", func(_ context.Context, msg Message) error {
		got = append(got, string(msg.Data))
		assert.Equal(t, "test", msg.Attributes["kind"])
		if len(got) == 3 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestMemoryBroker_ChannelsAreIsolated(t *testing.T) {
	broker := NewMemoryBroker(1)
	defer broker.Close()
	ctx := context.Background()

	_, err := broker.Publish(ctx, "a", []byte("x"), nil)
	require.NoError(t, err)

	sub, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	called := false
	err = broker.Subscribe(sub, "b", func(context.Context, Message) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestMemoryBroker_FailedMessagesAreDropped(t *testing.T) {
	broker := NewMemoryBroker(4)
	defer broker.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _ = broker.Publish(ctx, "jobs", []byte("bad"), nil)
	_, _ = broker.Publish(ctx, "jobs", []byte("good"), nil)

	var seen []string
	_ = broker.Subscribe(ctx, "jobs", func(_ context.Context, msg Message) error {
		seen = append(seen, string(msg.Data))
		if string(msg.Data) == "bad" {
			return errors.New("boom")
		}
		cancel()
		return nil
	})
	assert.Equal(t, []string{"bad", "good"}, seen)
}

func TestMemoryBroker_Close(t *testing.T) {
	broker := NewMemoryBroker(1)

	var wg sync.WaitGroup
	wg.Add(1)
	var subErr error
	go func() {
		defer wg.Done()
		subErr = broker.Subscribe(context.Background(), "jobs", func(context.Context, Message) error { return nil })
	}()

	require.NoError(t, broker.Close())
	require.NoError(t, broker.Close())
	wg.Wait()
	assert.NoError(t, subErr)

	_, err := broker.Publish(context.Background(), "jobs", []byte("x"), nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryBroker_PublishRespectsContext(t *testing.T) {
	broker := NewMemoryBroker(1)
	defer broker.Close()

	_, err := broker.Publish(context.Background(), "jobs", []byte("fills buffer"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = broker.Publish(ctx, "jobs", []byte("blocked"), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpen(t *testing.T) {
	m, err := Open(context.Background(), config.MQConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", m.Name())
	require.NoError(t, m.Close())

	_, err = Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.Error(t, err)
}

func TestMQ_PublishJSON(t *testing.T) {
	broker := NewMemoryBroker(1)
	m := New(broker)
	defer m.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := m.PublishJSON(ctx, "jobs", map[string]string{"ticketId": "t1"}, nil)
	require.NoError(t, err)

	_ = m.Subscribe(ctx, "jobs", func(_ context.Context, msg Message) error {
		assert.JSONEq(t, `{"ticketId":"t1"}`, string(msg.Data))
		cancel()
		return nil
	})
}
