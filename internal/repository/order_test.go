package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/model"
	"github.com/msmirnov/school-library/internal/repository"
)

const (
	orderUid = "8b8f64b1-4b07-47c6-a1a5-2a1b25a8a5bb"
	bookUid  = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
)

var orderRowColumns = []string{
	"id", "order_uid", "username", "book_id",
	"order_date", "checkout_date", "due_date", "return_date", "status",
}

func newOrderRepo(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	log := zap.NewExample().Named("test")
	books, err := repository.NewBookRepository(sdb, log)
	require.NoError(t, err)
	orders, err := repository.NewOrderRepository(sdb, books, log)
	require.NoError(t, err)
	return orders, mock
}

func storedOrder(status model.OrderStatus) model.Order {
	return model.Order{
		ID:        1,
		OrderUid:  orderUid,
		Username:  "ivanov",
		BookID:    7,
		BookUid:   bookUid,
		BookName:  "Республика ШКИД",
		OrderDate: model.Date{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		DueDate:   model.Date{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		Status:    status,
	}
}

func TestOrderRepository_ApplyTransition_Checkout(t *testing.T) {
	t.Parallel()
	orders, mock := newOrderRepo(t)
	order := storedOrder(model.StatusProcessing)

	mock.ExpectBegin()
	mock.ExpectExec("available_count - 1").
		WithArgs(order.BookID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs("CHECKED_OUT", sqlmock.AnyArg(), order.ID, "PROCESSING").
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow(order.ID, orderUid, "ivanov", order.BookID,
				order.OrderDate.Time, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
				order.DueDate.Time, nil, "CHECKED_OUT"))
	mock.ExpectCommit()

	updated, err := orders.ApplyTransition(context.Background(), order, model.StatusCheckedOut)
	require.NoError(t, err)
	require.Equal(t, model.StatusCheckedOut, updated.Status)
	require.True(t, updated.CheckoutDate.Valid)
	require.False(t, updated.ReturnDate.Valid)
	require.Equal(t, bookUid, updated.BookUid)
	require.Equal(t, order.BookName, updated.BookName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ApplyTransition_Return(t *testing.T) {
	t.Parallel()
	orders, mock := newOrderRepo(t)
	order := storedOrder(model.StatusCheckedOut)
	order.CheckoutDate.Time, order.CheckoutDate.Valid = time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), true

	mock.ExpectBegin()
	mock.ExpectExec(`available_count \+ 1`).
		WithArgs(order.BookID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs("RETURNED", sqlmock.AnyArg(), order.ID, "CHECKED_OUT").
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow(order.ID, orderUid, "ivanov", order.BookID,
				order.OrderDate.Time, order.CheckoutDate.Time,
				order.DueDate.Time, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), "RETURNED"))
	mock.ExpectCommit()

	updated, err := orders.ApplyTransition(context.Background(), order, model.StatusReturned)
	require.NoError(t, err)
	require.Equal(t, model.StatusReturned, updated.Status)
	require.True(t, updated.ReturnDate.Valid)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Cancelling a PROCESSING order never took a copy, so no inventory
// statement may run.
func TestOrderRepository_ApplyTransition_Cancel(t *testing.T) {
	t.Parallel()
	orders, mock := newOrderRepo(t)
	order := storedOrder(model.StatusProcessing)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs("CANCELLED", order.ID, "PROCESSING").
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow(order.ID, orderUid, "ivanov", order.BookID,
				order.OrderDate.Time, nil, order.DueDate.Time, nil, "CANCELLED"))
	mock.ExpectCommit()

	updated, err := orders.ApplyTransition(context.Background(), order, model.StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, updated.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ApplyTransition_NoCopies(t *testing.T) {
	t.Parallel()
	orders, mock := newOrderRepo(t)
	order := storedOrder(model.StatusProcessing)

	mock.ExpectBegin()
	mock.ExpectExec("available_count - 1").
		WithArgs(order.BookID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := orders.ApplyTransition(context.Background(), order, model.StatusCheckedOut)
	require.ErrorIs(t, err, errs.ErrNoAvailableCopies)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The status guard on the UPDATE is a compare-and-set: when the row moved
// on since the read, no row matches and the whole transaction rolls back.
func TestOrderRepository_ApplyTransition_StaleStatus(t *testing.T) {
	t.Parallel()
	orders, mock := newOrderRepo(t)
	order := storedOrder(model.StatusProcessing)

	mock.ExpectBegin()
	mock.ExpectExec("available_count - 1").
		WithArgs(order.BookID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs("CHECKED_OUT", sqlmock.AnyArg(), order.ID, "PROCESSING").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := orders.ApplyTransition(context.Background(), order, model.StatusCheckedOut)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_DeleteOrder(t *testing.T) {
	t.Parallel()

	t.Run("checked-out copy goes back on the shelf", func(t *testing.T) {
		t.Parallel()
		orders, mock := newOrderRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("select id, book_id, status from orders").
			WithArgs(orderUid).
			WillReturnRows(sqlmock.NewRows([]string{"id", "book_id", "status"}).
				AddRow(1, 7, "CHECKED_OUT"))
		mock.ExpectExec(`available_count \+ 1`).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("delete from orders").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, orders.DeleteOrder(context.Background(), orderUid))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost copy is retired, not reshelved", func(t *testing.T) {
		t.Parallel()
		orders, mock := newOrderRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("select id, book_id, status from orders").
			WithArgs(orderUid).
			WillReturnRows(sqlmock.NewRows([]string{"id", "book_id", "status"}).
				AddRow(1, 7, "LOST"))
		mock.ExpectExec("total_copies - 1").
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("delete from orders").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, orders.DeleteOrder(context.Background(), orderUid))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing order", func(t *testing.T) {
		t.Parallel()
		orders, mock := newOrderRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("select id, book_id, status from orders").
			WithArgs(orderUid).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := orders.DeleteOrder(context.Background(), orderUid)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
