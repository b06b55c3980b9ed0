package delivery

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"
)

// Mailer sends encoded report messages
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string        `json:"host" validate:"required,hostname|ip"`
	Port     int           `json:"port" validate:"required,min=1,max=65535"`
	Username string        `json:"username" validate:"required"`
	Password string        `json:"-"`
	Timeout  time.Duration `json:"timeout"`
}

// SMTPMailer delivers messages over SMTP with STARTTLS and PLAIN auth
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer returns a mailer for config
func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	if config.Host == "" || config.Port == 0 {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	if config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("smtp credentials are required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &SMTPMailer{config: config}, nil
}

// Send delivers msg to every envelope address
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	data, err := BuildMessage(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	dialer := &net.Dialer{Timeout: m.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &SendError{Stage: "dial", Cause: err}
	}
	deadline := time.Now().Add(m.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		_ = conn.Close()
		return &SendError{Stage: "dial", Cause: err}
	}
	defer func() { _ = client.Close() }()

	if err := client.StartTLS(&tls.Config{ServerName: m.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
		return &SendError{Stage: "starttls", Cause: err}
	}
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	if err := client.Auth(auth); err != nil {
		return &SendError{Stage: "auth", Cause: err}
	}
	if err := client.Mail(msg.From); err != nil {
		return &SendError{Stage: "mail", Cause: err}
	}
	for _, rcpt := range msg.Envelope.All() {
		if err := client.Rcpt(rcpt); err != nil {
			return &SendError{Stage: "rcpt", Cause: fmt.Errorf("%s: %w", rcpt, err)}
		}
	}

	w, err := client.Data()
	if err != nil {
		return &SendError{Stage: "data", Cause: err}
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return &SendError{Stage: "data", Cause: err}
	}
	if err := w.Close(); err != nil {
		return &SendError{Stage: "data", Cause: err}
	}
	if err := client.Quit(); err != nil {
		return &SendError{Stage: "quit", Cause: err}
	}
	return nil
}

// Outbox is an in-memory Mailer that records messages instead of sending them
type Outbox struct {
	mu   sync.Mutex
	sent []*Message
}

// Send records msg after checking that it encodes
func (o *Outbox) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := BuildMessage(msg); err != nil {
		return err
	}
	o.mu.Lock()
	o.sent = append(o.sent, msg)
	o.mu.Unlock()
	return nil
}

// Sent returns the recorded messages
func (o *Outbox) Sent() []*Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Message, len(o.sent))
	copy(out, o.sent)
	return out
}
