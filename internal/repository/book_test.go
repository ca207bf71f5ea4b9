package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/repository"
)

func newBookRepo(t *testing.T) (repository.BookRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	books, err := repository.NewBookRepository(sdb, zap.NewExample().Named("test"))
	require.NoError(t, err)
	return books, sdb, mock
}

func TestBookRepository_DecrementAvailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("takes a copy off the shelf", func(t *testing.T) {
		t.Parallel()
		books, sdb, mock := newBookRepo(t)
		mock.ExpectExec("available_count - 1").
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, books.DecrementAvailable(ctx, sdb, 7))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no copy left", func(t *testing.T) {
		t.Parallel()
		books, sdb, mock := newBookRepo(t)
		mock.ExpectExec("available_count - 1").
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := books.DecrementAvailable(ctx, sdb, 7)
		require.ErrorIs(t, err, errs.ErrNoAvailableCopies)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookRepository_IncrementAvailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("puts a copy back", func(t *testing.T) {
		t.Parallel()
		books, sdb, mock := newBookRepo(t)
		mock.ExpectExec(`available_count \+ 1`).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, books.IncrementAvailable(ctx, sdb, 7))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already at total_copies", func(t *testing.T) {
		t.Parallel()
		books, sdb, mock := newBookRepo(t)
		mock.ExpectExec(`available_count \+ 1`).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.Error(t, books.IncrementAvailable(ctx, sdb, 7))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookRepository_RetireCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("writes a lost copy off", func(t *testing.T) {
		t.Parallel()
		books, sdb, mock := newBookRepo(t)
		mock.ExpectExec("total_copies - 1").
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, books.RetireCopy(ctx, sdb, 7))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing outstanding to retire", func(t *testing.T) {
		t.Parallel()
		books, sdb, mock := newBookRepo(t)
		mock.ExpectExec("total_copies - 1").
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.Error(t, books.RetireCopy(ctx, sdb, 7))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
