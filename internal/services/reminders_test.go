package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/testutil"
)

type fixture struct {
	reminders  *ReminderService
	alice, bob *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.OpenSQLiteStore(t)
	auth := NewAuthService(store.Users(), bcrypt.MinCost)

	alice, err := auth.Register(context.Background(), "alice", "alice@example.com", "alice-pw")
	require.NoError(t, err)
	bob, err := auth.Register(context.Background(), "bob", "bob@example.com", "bob-pw")
	require.NoError(t, err)

	return fixture{reminders: NewReminderService(store), alice: alice, bob: bob}
}

func TestCreateReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{
		Title:       "Dentist",
		Description: testutil.Ptr("bring x-rays"),
		DueDate:     "2024-06-08",
	})
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, rem.UserID)
	assert.Equal(t, testutil.Date("2024-06-08"), rem.DueDate)

	rem, err = f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: "Call", DueDate: "2024-06-09T15:04:05Z"})
	require.NoError(t, err)
	assert.Equal(t, testutil.Date("2024-06-09"), rem.DueDate)
	assert.Nil(t, rem.Description)
}

func TestCreateReminderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, in := range map[string]ReminderInput{
		"missing title":      {DueDate: "2024-06-08"},
		"blank title":        {Title: "   ", DueDate: "2024-06-08"},
		"missing due date":   {Title: "x"},
		"malformed due date": {Title: "x", DueDate: "08/06/2024"},
		"title too long":     {Title: strings.Repeat("t", 256), DueDate: "2024-06-08"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.reminders.Create(ctx, f.alice.ID, in)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	list, err := f.reminders.List(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: strings.Repeat("é", 255), DueDate: "2024-06-08"})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 255), rem.Title)
}

func TestListIsolationAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-09-01", "2024-06-01", "2024-07-01"} {
		_, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: d, DueDate: d})
		require.NoError(t, err)
	}
	_, err := f.reminders.Create(ctx, f.bob.ID, ReminderInput{Title: "bob's", DueDate: "2024-01-01"})
	require.NoError(t, err)

	list, err := f.reminders.List(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-06-01", list[0].Title)
	assert.Equal(t, "2024-07-01", list[1].Title)
	assert.Equal(t, "2024-09-01", list[2].Title)
	for _, r := range list {
		assert.Equal(t, f.alice.ID, r.UserID)
	}
}

func TestGetReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: "x", DueDate: "2024-06-08"})
	require.NoError(t, err)

	got, err := f.reminders.Get(ctx, f.alice.ID, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, rem.ID, got.ID)

	_, err = f.reminders.Get(ctx, f.bob.ID, rem.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.reminders.Get(ctx, f.alice.ID, rem.ID+100)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{
		Title:       "Dentist",
		Description: testutil.Ptr("10am"),
		DueDate:     "2024-06-08",
	})
	require.NoError(t, err)

	updated, err := f.reminders.Update(ctx, f.alice.ID, rem.ID, ReminderInput{Title: "Dentist", DueDate: "2024-06-10"})
	require.NoError(t, err)
	assert.Equal(t, testutil.Date("2024-06-10"), updated.DueDate)
	assert.Nil(t, updated.Description, "absent description clears the stored one")
	assert.Equal(t, f.alice.ID, updated.UserID)
}

func TestUpdateForbiddenLeavesRowUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: "Dentist", DueDate: "2024-06-08"})
	require.NoError(t, err)

	_, err = f.reminders.Update(ctx, f.bob.ID, rem.ID, ReminderInput{Title: "hacked", DueDate: "2030-01-01"})
	assert.ErrorIs(t, err, common.ErrForbidden)

	// ownership is checked before validation
	_, err = f.reminders.Update(ctx, f.bob.ID, rem.ID, ReminderInput{})
	assert.ErrorIs(t, err, common.ErrForbidden)

	got, err := f.reminders.Get(ctx, f.alice.ID, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dentist", got.Title)
	assert.Equal(t, testutil.Date("2024-06-08"), got.DueDate)
}

func TestUpdateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: "x", DueDate: "2024-06-08"})
	require.NoError(t, err)

	_, err = f.reminders.Update(ctx, f.alice.ID, rem.ID+100, ReminderInput{Title: "y", DueDate: "2024-06-08"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.reminders.Update(ctx, f.alice.ID, rem.ID, ReminderInput{Title: "y", DueDate: "soon"})
	assert.ErrorIs(t, err, common.ErrValidation)

	got, err := f.reminders.Get(ctx, f.alice.ID, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
}

func TestDeleteReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: "x", DueDate: "2024-06-08"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.reminders.Delete(ctx, f.bob.ID, rem.ID), common.ErrForbidden)
	_, err = f.reminders.Get(ctx, f.alice.ID, rem.ID)
	require.NoError(t, err)

	require.NoError(t, f.reminders.Delete(ctx, f.alice.ID, rem.ID))
	assert.ErrorIs(t, f.reminders.Delete(ctx, f.alice.ID, rem.ID), common.ErrNotFound)

	list, err := f.reminders.List(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConcurrentUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rem, err := f.reminders.Create(ctx, f.alice.ID, ReminderInput{Title: "x", DueDate: "2024-06-08"})
	require.NoError(t, err)

	var (
		wg                   sync.WaitGroup
		updateErr, deleteErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, updateErr = f.reminders.Update(ctx, f.alice.ID, rem.ID, ReminderInput{Title: "y", DueDate: "2024-06-09"})
	}()
	go func() {
		defer wg.Done()
		deleteErr = f.reminders.Delete(ctx, f.alice.ID, rem.ID)
	}()
	wg.Wait()

	require.NoError(t, deleteErr)
	if updateErr != nil {
		assert.True(t, errors.Is(updateErr, common.ErrNotFound))
	}
	_, err = f.reminders.Get(ctx, f.alice.ID, rem.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
