// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"REMINDME_BACK-END/internal/repository/sqlite"
)

// OpenSQLiteStore returns a migrated in-memory store private to t. It is
// closed when the test ends.
func OpenSQLiteStore(t testing.TB) *sqlite.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	s, err := sqlite.Open(context.Background(), "file:"+name+"?mode=memory&cache=shared", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Date parses a YYYY-MM-DD literal and panics on malformed input.
func Date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
