package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"time"

	"REMINDME_BACK-END/internal/config"
)

var errNoSender = errors.New("mail: no sender address configured")

// SMTPMailer sends messages through an SMTP relay. It supports STARTTLS and
// implicit TLS.
type SMTPMailer struct {
	config config.EmailConfig
	now    func() time.Time
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPMailer{config: cfg, now: time.Now}
}

func (m *SMTPMailer) from() string {
	if m.config.FromEmail != "" {
		return m.config.FromEmail
	}
	return m.config.SMTPUsername
}

// Send delivers msg. The whole exchange is bounded by the context deadline
// and the configured timeout, whichever is sooner.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	from := m.from()
	if from == "" {
		return errNoSender
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	addr := net.JoinHostPort(m.config.SMTPHost, m.config.SMTPPort)
	conn, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.config.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if m.config.UseTLS && !m.config.UseSSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.config.SMTPHost}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if m.config.SMTPUsername != "" {
		auth := smtp.PlainAuth("", m.config.SMTPUsername, m.config.SMTPPassword, m.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(m.compose(from, msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return client.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context, addr string) (net.Conn, error) {
	if m.config.UseSSL {
		d := &tls.Dialer{Config: &tls.Config{ServerName: m.config.SMTPHost}}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// compose renders an RFC 5322 message with CRLF line endings.
func (m *SMTPMailer) compose(from string, msg Message) []byte {
	sender := (&netmail.Address{Name: m.config.FromName, Address: from}).String()

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}
