package sqlite

import (
	"context"
	"time"

	"REMINDME_BACK-END/internal/models"
)

const userColumns = `id, username, email, password_hash, auth_provider, created_at`

type UserRepository struct {
	db      DBTX
	timeout time.Duration
}

func NewUserRepository(db DBTX, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: timeout}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, auth_provider, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, provider(u), formatTimestamp(now))
	if err != nil {
		return nil, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, mapError(err)
	}
	u.ID = id
	u.CreatedAt = now
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE ORDER BY id LIMIT 1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		u         models.User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Provider, &createdAt)
	if err != nil {
		return nil, mapError(err)
	}
	if u.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// provider defaults an unset origin to a password account.
func provider(u *models.User) string {
	if u.Provider == "" {
		u.Provider = models.ProviderPassword
	}
	return u.Provider
}
