package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/harjot20022001/bug-tracker/config"
	"github.com/wneessen/go-mail"
)

// SMTPTransport delivers email through an SMTP relay using STARTTLS when
// the server offers it.
type SMTPTransport struct {
	client *mail.Client
}

// NewSMTPTransport builds a transport with PLAIN auth from cfg.
func NewSMTPTransport(cfg config.SMTPConfig) (*SMTPTransport, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}

	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(strings.TrimSpace(cfg.User)),
		mail.WithPassword(strings.TrimSpace(cfg.Password)),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTLSConfig(&tls.Config{
			ServerName:         host,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed relays
			MinVersion:         tls.VersionTLS12,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPTransport{client: client}, nil
}

// Send delivers email as a multipart message with text and HTML parts.
func (t *SMTPTransport) Send(ctx context.Context, email Email) error {
	msg, err := buildMessage(email)
	if err != nil {
		return err
	}
	return t.client.DialAndSendWithContext(ctx, msg)
}

func buildMessage(email Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", email.From, err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Text)
	if email.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)
	}
	return msg, nil
}

// NewMail builds the mail capability from cfg. Without credentials the
// capability is returned unconfigured and every send is a no-op.
func NewMail(cfg config.SMTPConfig) (Mail, error) {
	if !cfg.Configured() {
		return Mail{}, nil
	}
	transport, err := NewSMTPTransport(cfg)
	if err != nil {
		return Mail{}, err
	}
	return Mail{
		Transport:  transport,
		Configured: true,
		From:       cfg.Sender(),
	}, nil
}
