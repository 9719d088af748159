package scheduler

import (
	"context"
	"fmt"
	"time"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/mail"
	"REMINDME_BACK-END/internal/repository"
	"REMINDME_BACK-END/internal/utils"
)

const DefaultLeadDays = 7

// Report summarises one notification tick.
type Report struct {
	Target  time.Time
	Matched int
	Sent    int
	Failed  int
	// Skipped counts reminders another tick claimed first.
	Skipped int
}

// NotificationConfig configures a NotificationJob.
type NotificationConfig struct {
	AppName  string
	LeadDays int
	Location *time.Location
}

// NotificationJob emails owners of reminders due exactly LeadDays from today.
// Each reminder is claimed before its email is sent, so a reminder is mailed
// at most once even if ticks overlap or the send fails.
type NotificationJob struct {
	reminders repository.ReminderRepository
	mailer    mail.Mailer
	logger    logging.Logger
	cfg       NotificationConfig
	now       func() time.Time
}

func NewNotificationJob(reminders repository.ReminderRepository, mailer mail.Mailer, logger logging.Logger, cfg NotificationConfig) *NotificationJob {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &NotificationJob{
		reminders: reminders,
		mailer:    mailer,
		logger:    logger.With("job", "notifications"),
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetClock overrides the time source.
func (j *NotificationJob) SetClock(now func() time.Time) {
	j.now = now
}

// TargetDate is the due date matched by a tick running at now.
func (j *NotificationJob) TargetDate(now time.Time) time.Time {
	return utils.DateOf(now.In(j.cfg.Location)).AddDate(0, 0, j.cfg.LeadDays)
}

// Run adapts Tick to a Task.
func (j *NotificationJob) Run(ctx context.Context) error {
	_, err := j.Tick(ctx)
	return err
}

// Tick processes every matching reminder once. Per-reminder failures are
// logged and counted; only a failed lookup is returned as an error. A
// cancelled context stops the loop between reminders.
func (j *NotificationJob) Tick(ctx context.Context) (Report, error) {
	report := Report{Target: j.TargetDate(j.now())}
	target := utils.FormatDate(report.Target)

	due, err := j.reminders.ListDueOn(ctx, report.Target)
	if err != nil {
		return report, fmt.Errorf("list reminders due %s: %w", target, err)
	}
	report.Matched = len(due)

	for _, d := range due {
		if err := ctx.Err(); err != nil {
			j.logger.Warn(ctx, "tick abandoned", "target", target, "remaining", report.Matched-report.Sent-report.Failed-report.Skipped)
			break
		}

		claimed, err := j.reminders.MarkNotified(ctx, d.ReminderID, j.now())
		if err != nil {
			report.Failed++
			j.logger.Error(ctx, "failed to claim reminder", "reminder_id", d.ReminderID, "error", err)
			continue
		}
		if !claimed {
			report.Skipped++
			continue
		}

		if err := j.mailer.Send(ctx, mail.ReminderNotice(j.cfg.AppName, d)); err != nil {
			report.Failed++
			j.logger.Error(ctx, "failed to send reminder email",
				"reminder_id", d.ReminderID,
				"email", d.Email,
				"error", fmt.Errorf("%w: %w", common.ErrMailDelivery, err),
			)
			continue
		}
		report.Sent++
		j.logger.Info(ctx, "reminder email sent", "reminder_id", d.ReminderID, "email", d.Email)
	}

	j.logger.Info(ctx, "notification tick finished",
		"target", target,
		"matched", report.Matched,
		"sent", report.Sent,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}
