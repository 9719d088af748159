// Package repository declares the persistence contracts used by services and
// the notification scheduler. Concrete backends live in the postgres and
// sqlite subpackages; both map missing rows to common.ErrNotFound and unique
// violations to common.ErrConflict.
package repository

import (
	"context"
	"time"

	"REMINDME_BACK-END/internal/models"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts u and fills in ID and CreatedAt. A duplicate username
	// yields common.ErrConflict.
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ReminderRepository is the reminder store.
type ReminderRepository interface {
	Create(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	GetByID(ctx context.Context, id int64) (*models.Reminder, error)
	// GetByIDForUpdate reads the row and locks it until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Reminder, error)
	// ListByUser returns reminders owned by userID ordered by due date, then id.
	ListByUser(ctx context.Context, userID int64) ([]models.Reminder, error)
	// Update replaces title, description and due date. A changed due date
	// clears the notified marker.
	Update(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	Delete(ctx context.Context, id int64) error

	// ListDueOn returns not-yet-notified reminders whose due date is exactly
	// date, joined with their owners.
	ListDueOn(ctx context.Context, date time.Time) ([]models.DueReminder, error)
	// MarkNotified sets the notified marker if it is still unset and reports
	// whether this call set it.
	MarkNotified(ctx context.Context, id int64, at time.Time) (bool, error)
}

// Repositories groups the repositories bound to one handle (pool or tx).
type Repositories interface {
	Users() UserRepository
	Reminders() ReminderRepository
}

// Store is the injected store-access abstraction shared by the API layer and
// the scheduler. Connections are acquired per operation.
type Store interface {
	Repositories

	// WithTx runs fn inside a transaction, committing when fn returns nil and
	// rolling back otherwise. fn must only use the repositories it is given.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	Ping(ctx context.Context) error
	Close() error
}
