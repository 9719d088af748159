package sqlite

import (
	"context"
	"database/sql"
	"time"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/utils"
)

const reminderColumns = `id, user_id, title, description, due_date, notified_at, created_at, updated_at`

type ReminderRepository struct {
	db      DBTX
	timeout time.Duration
}

func NewReminderRepository(db DBTX, timeout time.Duration) *ReminderRepository {
	return &ReminderRepository{db: db, timeout: timeout}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(row scanner) (*models.Reminder, error) {
	var (
		rem                           models.Reminder
		description, notifiedAt       sql.NullString
		dueDate, createdAt, updatedAt string
	)
	err := row.Scan(&rem.ID, &rem.UserID, &rem.Title, &description, &dueDate, &notifiedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		d := description.String
		rem.Description = &d
	}
	if rem.DueDate, err = utils.ParseDate(dueDate); err != nil {
		return nil, err
	}
	if notifiedAt.Valid {
		t, err := parseTimestamp(notifiedAt.String)
		if err != nil {
			return nil, err
		}
		rem.NotifiedAt = &t
	}
	if rem.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if rem.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *ReminderRepository) Create(ctx context.Context, rem *models.Reminder) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := formatTimestamp(time.Now())
	out, err := scanReminder(r.db.QueryRowContext(ctx,
		`INSERT INTO reminders (user_id, title, description, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+reminderColumns,
		rem.UserID, rem.Title, rem.Description, utils.FormatDate(rem.DueDate), now, now))
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rem, err := scanReminder(r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return rem, nil
}

// GetByIDForUpdate needs no extra locking: transactions begin IMMEDIATE.
func (r *ReminderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Reminder, error) {
	return r.GetByID(ctx, id)
}

func (r *ReminderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = ?
		 ORDER BY due_date ASC, id ASC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]models.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, *rem)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *ReminderRepository) Update(ctx context.Context, rem *models.Reminder) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	due := utils.FormatDate(rem.DueDate)
	out, err := scanReminder(r.db.QueryRowContext(ctx,
		`UPDATE reminders
		    SET title = ?,
		        description = ?,
		        notified_at = CASE WHEN due_date = ? THEN notified_at ELSE NULL END,
		        due_date = ?,
		        updated_at = ?
		  WHERE id = ?
		 RETURNING `+reminderColumns,
		rem.Title, rem.Description, due, due, formatTimestamp(time.Now()), rem.ID))
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *ReminderRepository) ListDueOn(ctx context.Context, date time.Time) ([]models.DueReminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.title, r.due_date, u.username, u.email
		   FROM reminders r
		   JOIN users u ON u.id = r.user_id
		  WHERE r.due_date = ? AND r.notified_at IS NULL
		  ORDER BY r.id`, utils.FormatDate(date))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]models.DueReminder, 0)
	for rows.Next() {
		var (
			d   models.DueReminder
			due string
		)
		if err := rows.Scan(&d.ReminderID, &d.Title, &due, &d.Username, &d.Email); err != nil {
			return nil, mapError(err)
		}
		if d.DueDate, err = utils.ParseDate(due); err != nil {
			return nil, mapError(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *ReminderRepository) MarkNotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET notified_at = ? WHERE id = ? AND notified_at IS NULL`,
		formatTimestamp(at), id)
	if err != nil {
		return false, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err)
	}
	return n == 1, nil
}
