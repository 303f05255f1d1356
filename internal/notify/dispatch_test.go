package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harjot20022001/bug-tracker/internal/mq"
	"github.com/harjot20022001/bug-tracker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	assigned []types.UserRef
	updated  []types.TicketChanges
}

func (s *recordingSender) record(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *recordingSender) SendAssignment(_ context.Context, _ types.Ticket, assignee, _ types.UserRef) {
	s.record(func() { s.assigned = append(s.assigned, assignee) })
}

func (s *recordingSender) SendUpdate(_ context.Context, _ types.Ticket, _ types.UserRef, changes types.TicketChanges) {
	s.record(func() { s.updated = append(s.updated, changes) })
}

type failingPublisher struct{}

func (failingPublisher) PublishJSON(context.Context, string, any, map[string]string) (string, error) {
	return "", errors.New("broker unavailable")
}

func TestDispatcher_WorkerRoundTrip(t *testing.T) {
	queue := mq.New(mq.NewMemoryBroker(8))
	defer queue.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dispatcher := NewDispatcher(queue, "", nil)
	ticket := sampleTicket()
	changes := types.TicketChanges{Priority: &types.FieldChange{Old: "Medium", New: "High"}}

	dispatcher.TicketAssigned(ctx, ticket, bob, admin)
	dispatcher.Wait()
	dispatcher.TicketUpdated(ctx, ticket, admin, changes)
	dispatcher.Wait()

	sender := &recordingSender{}
	worker := NewWorker(queue, DefaultChannel, sender, nil)
	handled := 0
	err := queue.Subscribe(ctx, DefaultChannel, func(ctx context.Context, msg mq.Message) error {
		require.NoError(t, worker.Handle(ctx, msg))
		handled++
		if handled == 2 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	require.Equal(t, []types.UserRef{bob}, sender.assigned)
	require.Len(t, sender.updated, 1)
	assert.Equal(t, changes, sender.updated[0])
}

func TestDispatcher_DetachedFromRequestContext(t *testing.T) {
	queue := mq.New(mq.NewMemoryBroker(1))
	defer queue.Close()

	reqCtx, cancel := context.WithCancel(context.Background())
	dispatcher := NewDispatcher(queue, "jobs", nil)
	dispatcher.TicketAssigned(reqCtx, sampleTicket(), bob, admin)
	cancel()
	dispatcher.Wait()

	ctx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	var got Job
	_ = queue.Subscribe(ctx, "jobs", func(_ context.Context, msg mq.Message) error {
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, JobAssigned, msg.Attributes["kind"])
		stop()
		return nil
	})
	assert.Equal(t, JobAssigned, got.Kind)
	require.NotNil(t, got.Assignee)
	assert.Equal(t, bob, *got.Assignee)
	assert.Equal(t, "Website", got.Ticket.Project.Name)
}

func TestDispatcher_PublishFailureIsAbsorbed(t *testing.T) {
	dispatcher := NewDispatcher(failingPublisher{}, "jobs", nil)
	assert.NotPanics(t, func() {
		dispatcher.TicketUpdated(context.Background(), sampleTicket(), admin, types.TicketChanges{})
		dispatcher.Wait()
	})
}

func TestWorker_AcksMalformedJobs(t *testing.T) {
	sender := &recordingSender{}
	worker := NewWorker(nil, "", sender, nil)
	ctx := context.Background()

	assert.NoError(t, worker.Handle(ctx, mq.Message{ID: "1", Data: []byte("{not json")}))
	assert.NoError(t, worker.Handle(ctx, mq.Message{ID: "2", Data: []byte(`{"kind":"ticket.deleted"}`)}))
	assert.NoError(t, worker.Handle(ctx, mq.Message{ID: "3", Data: []byte(`{"kind":"ticket.assigned"}`)}))
	assert.Empty(t, sender.assigned)
	assert.Empty(t, sender.updated)
}
