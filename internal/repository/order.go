package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/model"
)

type orderRepository struct {
	db    *sqlx.DB
	books BookRepository
	log   *zap.Logger
}

func NewOrderRepository(db *sqlx.DB, books BookRepository, log *zap.Logger) (*orderRepository, error) {
	return &orderRepository{
		db:    db,
		books: books,
		log:   log.Named("repo"),
	}, nil
}

var orderColumns = []string{
	"o.id", "o.order_uid", "o.username", "o.book_id",
	"b.book_uid", "b.name as book_name",
	"o.order_date", "o.checkout_date", "o.due_date", "o.return_date", "o.status",
}

func (r *orderRepository) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.Order, error) {
	book, err := r.books.GetBook(ctx, req.BookUid)
	if err != nil {
		return model.Order{}, err
	}

	q, args, err := qb.Insert(ordersTableName).
		Columns("order_uid", "username", "book_id", "order_date", "due_date", "status").
		Values(uuid.New(), req.Username, book.ID, time.Now().UTC().Format(time.DateOnly), req.DueDate.Format(time.DateOnly), model.StatusProcessing).
		Suffix("returning id, order_uid, username, book_id, order_date, checkout_date, due_date, return_date, status").
		ToSql()
	if err != nil {
		return model.Order{}, err
	}
	var order model.Order
	if err := r.db.GetContext(ctx, &order, q, args...); err != nil {
		r.log.Error("CreateOrder", zap.String("q", q), zap.Any("args", args))
		return model.Order{}, mapPgError(err)
	}
	order.BookUid = book.BookUid
	order.BookName = book.Name
	return order, nil
}

func (r *orderRepository) GetOrder(ctx context.Context, orderUid string) (model.Order, error) {
	q, args, err := qb.Select(orderColumns...).
		From(ordersTableName + " o").
		Join(fmt.Sprintf("%s b on b.id = o.book_id", booksTableName)).
		Where(sq.Eq{"o.order_uid": orderUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Order{}, err
	}
	var order model.Order
	if err := r.db.GetContext(ctx, &order, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, errs.ErrNotFound
		}
		return model.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) ListOrders(ctx context.Context, filter model.OrdersFilter) ([]model.Order, error) {
	q := qb.Select(orderColumns...).
		From(ordersTableName + " o").
		Join(fmt.Sprintf("%s b on b.id = o.book_id", booksTableName)).
		OrderBy("o.order_date desc", "o.id desc")

	if filter.Username != "" {
		q = q.Where(sq.Eq{"o.username": filter.Username})
	}
	if filter.BookUid != "" {
		q = q.Where(sq.Eq{"b.book_uid": filter.BookUid})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"o.status": filter.Status})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListOrders", zap.String("query", query), zap.Any("args", args))

	items := make([]model.Order, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyTransition persists the new order status and the inventory
// adjustment it implies as a single transaction. The conditional UPDATE on
// books takes the row lock, so concurrent checkouts of the last copy
// serialize and only one succeeds.
func (r *orderRepository) ApplyTransition(ctx context.Context, order model.Order, next model.OrderStatus) (model.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Order{}, errors.Wrap(err, "begin tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	switch {
	case !order.Status.ConsumesCopy() && next.ConsumesCopy():
		err = r.books.DecrementAvailable(ctx, tx, order.BookID)
	case order.Status.ConsumesCopy() && !next.ConsumesCopy():
		err = r.books.IncrementAvailable(ctx, tx, order.BookID)
	}
	if err != nil {
		return model.Order{}, err
	}

	ub := qb.Update(ordersTableName).
		Set("status", next).
		Where(sq.Eq{"id": order.ID}).
		Where(sq.Eq{"status": order.Status})
	now := time.Now().UTC().Format(time.DateOnly)
	if next == model.StatusCheckedOut {
		ub = ub.Set("checkout_date", now)
	}
	if next == model.StatusReturned {
		ub = ub.Set("return_date", now)
	}
	q, args, err := ub.
		Suffix("returning id, order_uid, username, book_id, order_date, checkout_date, due_date, return_date, status").
		ToSql()
	if err != nil {
		return model.Order{}, err
	}

	var updated model.Order
	if err = sqlx.GetContext(ctx, tx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// the order row changed under us, treat as a stale transition
			err = errs.ErrInvalidTransition
		}
		return model.Order{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.Order{}, errors.Wrap(err, "commit transition")
	}
	updated.BookUid = order.BookUid
	updated.BookName = order.BookName
	return updated, nil
}

// DeleteOrder removes the record and reconciles the ledger in the same
// transaction: a mid-loan copy goes back on the shelf, a lost copy is
// retired from total_copies.
func (r *orderRepository) DeleteOrder(ctx context.Context, orderUid string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var row struct {
		ID     int               `db:"id"`
		BookID int               `db:"book_id"`
		Status model.OrderStatus `db:"status"`
	}
	q := fmt.Sprintf(`select id, book_id, status from %s where order_uid = $1 for update`, ordersTableName)
	if err = sqlx.GetContext(ctx, tx, &row, q, orderUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errs.ErrNotFound
		}
		return err
	}

	// a checked-out copy goes back on the shelf; a lost one is written off
	switch {
	case row.Status == model.StatusLost:
		err = r.books.RetireCopy(ctx, tx, row.BookID)
	case row.Status.ConsumesCopy():
		err = r.books.IncrementAvailable(ctx, tx, row.BookID)
	}
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`delete from %s where id = $1`, ordersTableName), row.ID); err != nil {
		return mapPgError(err)
	}
	err = tx.Commit()
	return err
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation:
			return errs.ErrConflict
		}
	}
	return err
}
