package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"REMINDME_BACK-END/internal/common"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), common.ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), common.ErrNotFound)

	err := mapError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Contains(t, err.Error(), "users_username_key")

	other := errors.New("connection reset")
	err = mapError(other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, common.ErrConflict)
	assert.NotErrorIs(t, err, common.ErrNotFound)

	err = mapError(&pgconn.PgError{Code: "23503"})
	assert.NotErrorIs(t, err, common.ErrConflict)
}

func TestNewStoreDefaultTimeout(t *testing.T) {
	s := NewStore(nil, 0)
	assert.Equal(t, defaultQueryTimeout, s.queryTimeout)
}
