package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

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

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	var rem models.Reminder
	err := row.Scan(&rem.ID, &rem.UserID, &rem.Title, &rem.Description, &rem.DueDate,
		&rem.NotifiedAt, &rem.CreatedAt, &rem.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rem.DueDate = utils.DateOf(rem.DueDate)
	return &rem, nil
}

// Dates are sent as YYYY-MM-DD text and cast server side so that the simple
// protocol and the extended protocol behave the same.
func (r *ReminderRepository) Create(ctx context.Context, rem *models.Reminder) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := scanReminder(r.db.QueryRow(ctx,
		`INSERT INTO reminders (user_id, title, description, due_date)
		 VALUES ($1, $2, $3, $4::date)
		 RETURNING `+reminderColumns,
		rem.UserID, rem.Title, rem.Description, utils.FormatDate(rem.DueDate)))
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	return r.getOne(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)
}

func (r *ReminderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Reminder, error) {
	return r.getOne(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReminderRepository) getOne(ctx context.Context, query string, id int64) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rem, err := scanReminder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return rem, nil
}

func (r *ReminderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = $1
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

	// In SET, due_date still refers to the old value.
	out, err := scanReminder(r.db.QueryRow(ctx,
		`UPDATE reminders
		    SET title = $1,
		        description = $2,
		        notified_at = CASE WHEN due_date = $3::date THEN notified_at ELSE NULL END,
		        due_date = $3::date,
		        updated_at = NOW()
		  WHERE id = $4
		 RETURNING `+reminderColumns,
		rem.Title, rem.Description, utils.FormatDate(rem.DueDate), rem.ID))
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *ReminderRepository) ListDueOn(ctx context.Context, date time.Time) ([]models.DueReminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.title, r.due_date, u.username, u.email
		   FROM reminders r
		   JOIN users u ON u.id = r.user_id
		  WHERE r.due_date = $1::date AND r.notified_at IS NULL
		  ORDER BY r.id`, utils.FormatDate(date))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]models.DueReminder, 0)
	for rows.Next() {
		var d models.DueReminder
		if err := rows.Scan(&d.ReminderID, &d.Title, &d.DueDate, &d.Username, &d.Email); err != nil {
			return nil, mapError(err)
		}
		d.DueDate = utils.DateOf(d.DueDate)
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

	tag, err := r.db.Exec(ctx,
		`UPDATE reminders SET notified_at = $2 WHERE id = $1 AND notified_at IS NULL`, id, at)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}
