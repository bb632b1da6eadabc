package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupdir-io/groupdir/internal/models"
)

func TestSQLResolverFindAll(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() {
		if err := db.Close(); err != nil {
			t.Logf("error closing db: %v", err)
		}
	}()

	r := NewSQLResolver(db, "sqlmock")

	t.Run("ambiguous name returns every id", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7).AddRow(9))

		ids, err := r.FindAll(context.Background(), "Alice Smith")
		require.NoError(t, err)
		assert.Equal(t, []models.AccountID{7, 9}, ids)
	})

	t.Run("no match is empty, not an error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		ids, err := r.FindAll(context.Background(), "nobody@example.com")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM accounts").
			WillReturnError(errors.New("connection reset"))

		_, err := r.FindAll(context.Background(), "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "alice")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
