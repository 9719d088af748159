package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/mail"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/repository"
	"REMINDME_BACK-END/internal/testutil"
)

type recordingMailer struct {
	mu      sync.Mutex
	sent    []mail.Message
	failFor map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To] {
		return errors.New("relay refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type env struct {
	store  repository.Store
	mailer *recordingMailer
	job    *NotificationJob
	now    time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := testutil.OpenSQLiteStore(t)
	e := &env{
		store:  store,
		mailer: &recordingMailer{failFor: map[string]bool{}},
		now:    time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	e.job = NewNotificationJob(store.Reminders(), e.mailer, logging.Discard(), NotificationConfig{
		AppName:  "DateMate",
		LeadDays: DefaultLeadDays,
	})
	e.job.SetClock(func() time.Time { return e.now })
	return e
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.store.Users().Create(context.Background(), &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return u
}

func (e *env) reminder(t *testing.T, owner *models.User, title, due string) *models.Reminder {
	t.Helper()
	r, err := e.store.Reminders().Create(context.Background(), &models.Reminder{
		UserID:  owner.ID,
		Title:   title,
		DueDate: testutil.Date(due),
	})
	require.NoError(t, err)
	return r
}

func TestTargetDate(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, testutil.Date("2024-06-08"), e.job.TargetDate(e.now))

	// late evening in Tokyo is already the next day
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	j := NewNotificationJob(nil, nil, logging.Discard(), NotificationConfig{LeadDays: 7, Location: tokyo})
	assert.Equal(t, testutil.Date("2024-06-09"), j.TargetDate(time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)))
}

func TestTickSendsOnceOnMatchingDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.reminder(t, alice, "Dentist", "2024-06-08")
	e.reminder(t, alice, "Too early", "2024-06-07")
	e.reminder(t, alice, "Too late", "2024-06-09")

	report, err := e.job.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.Date("2024-06-08"), report.Target)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Sent)

	sent := e.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "DateMate Reminder: Dentist", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Hi alice,")
	assert.Contains(t, sent[0].Body, "Saturday, June 08, 2024")

	// the next day's tick targets 2024-06-09 and finds nothing new for Dentist
	e.now = e.now.Add(24 * time.Hour)
	report, err = e.job.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	sent = e.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Too late", titleFromSubject(sent[1].Subject))
}

func titleFromSubject(s string) string {
	const prefix = "DateMate Reminder: "
	return s[len(prefix):]
}

func TestTickTwiceSameDaySendsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.reminder(t, alice, "Dentist", "2024-06-08")

	_, err := e.job.Tick(ctx)
	require.NoError(t, err)

	e.now = e.now.Add(5 * time.Minute)
	report, err := e.job.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Matched)
	assert.Len(t, e.mailer.Sent(), 1)
}

func TestTickConcurrentTicksSendOnce(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	for i := 0; i < 5; i++ {
		e.reminder(t, alice, "r", "2024-06-08")
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.job.Tick(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, e.mailer.Sent(), 5)
}

func TestTickFailureDoesNotAbortBatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")
	e.reminder(t, alice, "a", "2024-06-08")
	e.reminder(t, bob, "b", "2024-06-08")
	e.reminder(t, carol, "c", "2024-06-08")
	e.mailer.failFor["bob@example.com"] = true

	report, err := e.job.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Matched)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)

	sent := e.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "carol@example.com", sent[1].To)

	// failed sends are not retried
	delete(e.mailer.failFor, "bob@example.com")
	report, err = e.job.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Matched)
}

func TestTickMovedReminderIsNotifiedAgain(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	r := e.reminder(t, alice, "Dentist", "2024-06-08")

	_, err := e.job.Tick(ctx)
	require.NoError(t, err)

	r.DueDate = testutil.Date("2024-06-09")
	_, err = e.store.Reminders().Update(ctx, r)
	require.NoError(t, err)

	e.now = e.now.Add(24 * time.Hour)
	report, err := e.job.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
}

func TestTickCancelledContext(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	e.reminder(t, alice, "Dentist", "2024-06-08")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = e.job.Tick(ctx)
	assert.Empty(t, e.mailer.Sent())
}

func TestNotificationJobInRunner(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	e.reminder(t, alice, "Dentist", "2024-06-08")

	r := NewRunner("notifications", time.Hour, e.job.Run, logging.Discard(), WithRunOnStart(true))
	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return r.Runs() == 1 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()

	assert.Len(t, e.mailer.Sent(), 1)
}
