// Package mail delivers reminder notices over SMTP.
package mail

import (
	"context"
	"fmt"

	"REMINDME_BACK-END/internal/models"
)

// Message is a plain-text email to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends one message. Each call is independent; a failure affects only
// that message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

const noticeDateLayout = "Monday, January 02, 2006"

// ReminderNotice builds the notice sent a week before a reminder is due.
func ReminderNotice(appName string, r models.DueReminder) Message {
	return Message{
		To:      r.Email,
		Subject: fmt.Sprintf("%s Reminder: %s", appName, r.Title),
		Body: fmt.Sprintf(
			"Hi %s,\n\n"+
				"This is a friendly reminder that your event '%s' is due next week on %s.\n\n"+
				"Best,\n"+
				"The %s Team",
			r.Username, r.Title, r.DueDate.Format(noticeDateLayout), appName),
	}
}
