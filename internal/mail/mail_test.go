package mail

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"REMINDME_BACK-END/internal/config"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/models"
)

func TestReminderNotice(t *testing.T) {
	msg := ReminderNotice("DateMate", models.DueReminder{
		ReminderID: 1,
		Title:      "Dentist",
		DueDate:    time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
		Username:   "alice",
		Email:      "alice@example.com",
	})

	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "DateMate Reminder: Dentist", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.Body, "Hi alice,"))
	assert.Contains(t, msg.Body, "your event 'Dentist' is due next week on Saturday, June 08, 2024.")
	assert.Contains(t, msg.Body, "The DateMate Team")
}

func TestCompose(t *testing.T) {
	m := NewSMTPMailer(config.EmailConfig{FromName: "DateMate", FromEmail: "noreply@example.com"})
	m.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	raw := string(m.compose(m.from(), Message{
		To:      "alice@example.com",
		Subject: "Erinnerung: Zahnärzt",
		Body:    "line one\nline two",
	}))

	assert.Contains(t, raw, "From: \"DateMate\" <noreply@example.com>\r\n")
	assert.Contains(t, raw, "To: alice@example.com\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "Date: Sat, 01 Jun 2024 09:00:00 +0000\r\n")
	assert.Contains(t, raw, "\r\n\r\nline one\r\nline two\r\n")
}

func TestSendWithoutSender(t *testing.T) {
	m := NewSMTPMailer(config.EmailConfig{SMTPHost: "localhost", SMTPPort: "25"})
	err := m.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorIs(t, err, errNoSender)
}

// smtpServer is a minimal SMTP sink that records the DATA payload.
type smtpServer struct {
	ln   net.Listener
	mu   sync.Mutex
	data []string
	rcpt []string
}

func startSMTPServer(t *testing.T) *smtpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &smtpServer{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *smtpServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			s.mu.Lock()
			s.rcpt = append(s.rcpt, strings.TrimSpace(line[len("RCPT TO:"):]))
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 go ahead")
			var buf bytes.Buffer
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				buf.WriteString(l)
			}
			s.mu.Lock()
			s.data = append(s.data, buf.String())
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTPMailerSend(t *testing.T) {
	srv := startSMTPServer(t)
	host, port, err := net.SplitHostPort(srv.ln.Addr().String())
	require.NoError(t, err)

	m := NewSMTPMailer(config.EmailConfig{
		SMTPHost:  host,
		SMTPPort:  port,
		FromEmail: "noreply@example.com",
		FromName:  "DateMate",
		UseTLS:    true,
		Timeout:   5 * time.Second,
	})

	err = m.Send(context.Background(), Message{To: "alice@example.com", Subject: "hello", Body: "hi"})
	require.NoError(t, err)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.data, 1)
	assert.Equal(t, []string{"<alice@example.com>"}, srv.rcpt)
	assert.Contains(t, srv.data[0], "Subject: hello\r\n")
	assert.Contains(t, srv.data[0], "\r\n\r\nhi\r\n")
}

func TestSMTPMailerUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, ln.Close())

	m := NewSMTPMailer(config.EmailConfig{SMTPHost: host, SMTPPort: port, FromEmail: "noreply@example.com", Timeout: time.Second})
	assert.Error(t, m.Send(context.Background(), Message{To: "a@example.com"}))
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(logging.New(&buf, "text", "info"))

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Body: "b"}))
	assert.Contains(t, buf.String(), "to=a@example.com")
}
