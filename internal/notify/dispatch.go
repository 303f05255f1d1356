package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/mq"
	"github.com/harjot20022001/bug-tracker/types"
)

// DefaultChannel is the queue that carries notification jobs.
const DefaultChannel = "ticket-notifications"

const publishTimeout = 10 * time.Second

// Job kinds.
const (
	JobAssigned = "ticket.assigned"
	JobUpdated  = "ticket.updated"
)

// Job is the queued form of a ticket event.
type Job struct {
	Kind     string               `json:"kind"`
	Ticket   types.Ticket         `json:"ticket"`
	Actor    types.UserRef        `json:"actor"`
	Assignee *types.UserRef       `json:"assignee,omitempty"`
	Changes  *types.TicketChanges `json:"changes,omitempty"`
}

// Publisher is the queue side used by Dispatcher.
type Publisher interface {
	PublishJSON(ctx context.Context, channel string, value any, attrs map[string]string) (string, error)
}

// Dispatcher turns ticket events into queued jobs. Publishing happens on a
// separate goroutine with a context detached from the caller's, so a
// request never waits for the queue.
type Dispatcher struct {
	pub     Publisher
	channel string
	log     logging.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(pub Publisher, channel string, log logging.Logger) *Dispatcher {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Dispatcher{pub: pub, channel: channel, log: log}
}

func (d *Dispatcher) TicketAssigned(ctx context.Context, ticket types.Ticket, assignee, actor types.UserRef) {
	d.publish(ctx, Job{Kind: JobAssigned, Ticket: ticket, Actor: actor, Assignee: &assignee})
}

func (d *Dispatcher) TicketUpdated(ctx context.Context, ticket types.Ticket, actor types.UserRef, changes types.TicketChanges) {
	d.publish(ctx, Job{Kind: JobUpdated, Ticket: ticket, Actor: actor, Changes: &changes})
}

func (d *Dispatcher) publish(ctx context.Context, job Job) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		id, err := d.pub.PublishJSON(ctx, d.channel, job, map[string]string{"kind": job.Kind})
		if err != nil {
			d.log.Warn(ctx, "publish notification", "kind", job.Kind, "ticket_id", job.Ticket.ID, "error", err)
			return
		}
		d.log.Debug(ctx, "notification queued", "kind", job.Kind, "ticket_id", job.Ticket.ID, "message_id", id)
	}()
}

// Wait blocks until every publish started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Sender delivers notifications. *Notifier implements it.
type Sender interface {
	SendAssignment(ctx context.Context, ticket types.Ticket, assignee, actor types.UserRef)
	SendUpdate(ctx context.Context, ticket types.Ticket, actor types.UserRef, changes types.TicketChanges)
}

// Subscriber is the queue side used by Worker.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Worker consumes notification jobs and hands them to a Sender. Every job
// is acknowledged, including malformed ones.
type Worker struct {
	sub     Subscriber
	channel string
	sender  Sender
	log     logging.Logger
}

func NewWorker(sub Subscriber, channel string, sender Sender, log logging.Logger) *Worker {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Worker{sub: sub, channel: channel, sender: sender, log: log}
}

// Run consumes jobs until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info(ctx, "notification worker started", "channel", w.channel)
	return w.sub.Subscribe(ctx, w.channel, w.Handle)
}

// Handle processes a single queued job.
func (w *Worker) Handle(ctx context.Context, msg mq.Message) error {
	var job Job
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		w.log.Warn(ctx, "discard malformed notification", "message_id", msg.ID, "error", err)
		return nil
	}

	switch job.Kind {
	case JobAssigned:
		if job.Assignee == nil {
			w.log.Warn(ctx, "discard assignment without assignee", "message_id", msg.ID)
			return nil
		}
		w.sender.SendAssignment(ctx, job.Ticket, *job.Assignee, job.Actor)
	case JobUpdated:
		var changes types.TicketChanges
		if job.Changes != nil {
			changes = *job.Changes
		}
		w.sender.SendUpdate(ctx, job.Ticket, job.Actor, changes)
	default:
		w.log.Warn(ctx, "discard unknown notification", "message_id", msg.ID, "kind", job.Kind)
	}
	return nil
}
