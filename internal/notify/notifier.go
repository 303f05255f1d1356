// Package notify decides who hears about ticket events, renders the emails
// and delivers them. Delivery is best-effort: failures are logged and never
// reach the caller.
package notify

import (
	"context"
	"strings"

	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/types"
)

// Email is a rendered message ready for a Transport.
type Email struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers an Email.
type Transport interface {
	Send(ctx context.Context, email Email) error
}

// Mail is the mail capability handed to a Notifier. Nothing is sent unless
// Configured is true and Transport is set.
type Mail struct {
	Transport  Transport
	Configured bool
	From       string
}

func (m Mail) enabled() bool {
	return m.Configured && m.Transport != nil
}

// Notifier sends ticket emails.
type Notifier struct {
	mail     Mail
	renderer *Renderer
	log      logging.Logger
}

func New(mail Mail, renderer *Renderer, log logging.Logger) *Notifier {
	if log == nil {
		log = logging.Discard()
	}
	return &Notifier{mail: mail, renderer: renderer, log: log}
}

// SendAssignment tells assignee that actor gave them the ticket.
func (n *Notifier) SendAssignment(ctx context.Context, ticket types.Ticket, assignee, actor types.UserRef) {
	if !n.mail.enabled() {
		return
	}
	to := strings.TrimSpace(assignee.Email)
	if to == "" {
		return
	}

	text, html, err := n.renderer.Assignment(ticket, actor)
	if err != nil {
		n.log.Warn(ctx, "render assignment email", "ticket_id", ticket.ID, "error", err)
		return
	}
	n.deliver(ctx, "assignment", ticket, Email{
		From:    n.mail.From,
		To:      []string{to},
		Subject: "New Ticket Assignment: " + ticket.Title,
		Text:    text,
		HTML:    html,
	})
}

// SendUpdate summarizes changes for the ticket's assignee and submitter,
// leaving out actor.
func (n *Notifier) SendUpdate(ctx context.Context, ticket types.Ticket, actor types.UserRef, changes types.TicketChanges) {
	if !n.mail.enabled() {
		return
	}
	recipients := UpdateRecipients(ticket, actor)
	if len(recipients) == 0 {
		return
	}

	text, html, err := n.renderer.Update(ticket, actor, changes)
	if err != nil {
		n.log.Warn(ctx, "render update email", "ticket_id", ticket.ID, "error", err)
		return
	}
	n.deliver(ctx, "update", ticket, Email{
		From:    n.mail.From,
		To:      recipients,
		Subject: "Ticket Updated: " + ticket.Title,
		Text:    text,
		HTML:    html,
	})
}

func (n *Notifier) deliver(ctx context.Context, kind string, ticket types.Ticket, email Email) {
	if err := n.mail.Transport.Send(ctx, email); err != nil {
		n.log.Warn(ctx, "send ticket email", "kind", kind, "ticket_id", ticket.ID, "recipients", len(email.To), "error", err)
		return
	}
	n.log.Info(ctx, "ticket email sent", "kind", kind, "ticket_id", ticket.ID, "recipients", len(email.To))
}

// UpdateRecipients returns the distinct addresses of the ticket's assignee
// and submitter, excluding actor and anyone without an email.
func UpdateRecipients(ticket types.Ticket, actor types.UserRef) []string {
	candidates := []*types.UserRef{ticket.AssignedTo, &ticket.Submitter}

	seen := make(map[string]struct{}, len(candidates))
	recipients := make([]string, 0, len(candidates))
	for _, ref := range candidates {
		if ref == nil || ref.ID == "" || ref.ID == actor.ID {
			continue
		}
		email := strings.TrimSpace(ref.Email)
		if email == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		recipients = append(recipients, email)
	}
	return recipients
}
