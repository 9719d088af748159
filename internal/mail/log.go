package mail

import (
	"context"

	"REMINDME_BACK-END/internal/logging"
)

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP credentials are configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "email not sent, smtp disabled",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
