package models

import "time"

// Reminder is a dated note owned by exactly one user.
type Reminder struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	DueDate     time.Time  `json:"due_date" db:"due_date"` // calendar date, UTC midnight
	NotifiedAt  *time.Time `json:"notified_at,omitempty" db:"notified_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// DueReminder is a reminder joined with its owner, as read by the
// notification scheduler.
type DueReminder struct {
	ReminderID int64
	Title      string
	DueDate    time.Time
	Username   string
	Email      string
}
