package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/model"
)

type bookRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBookRepository(db *sqlx.DB, log *zap.Logger) (*bookRepository, error) {
	return &bookRepository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

func (r *bookRepository) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	q, args, err := qb.Select("id", "book_uid", "name", "author", "isbn", "total_copies", "available_count").
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error) {
	q := qb.Select("book_uid", "name", "author", "isbn", "total_copies", "available_count").
		From(booksTableName).
		OrderBy("name")

	if !showAll {
		q = q.Where(sq.Gt{"available_count": 0})
	}
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

// DecrementAvailable takes one copy off the shelf. The available_count > 0
// guard makes it a compare-and-set: with no copy left no row is updated and
// the caller gets ErrNoAvailableCopies.
func (r *bookRepository) DecrementAvailable(ctx context.Context, ext sqlx.ExtContext, bookID int) error {
	q := fmt.Sprintf(`
update %s
    set available_count = available_count - 1
where id = $1 and available_count > 0`, booksTableName)

	res, err := ext.ExecContext(ctx, q, bookID)
	if err != nil {
		return errors.Wrap(err, "decrement available_count")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNoAvailableCopies
	}
	return nil
}

func (r *bookRepository) IncrementAvailable(ctx context.Context, ext sqlx.ExtContext, bookID int) error {
	q := fmt.Sprintf(`
update %s
    set available_count = available_count + 1
where id = $1 and available_count < total_copies`, booksTableName)

	res, err := ext.ExecContext(ctx, q, bookID)
	if err != nil {
		return errors.Wrap(err, "increment available_count")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Errorf("book %d: available_count already at total_copies", bookID)
	}
	return nil
}

// RetireCopy writes a lost copy off the ledger: the title owns one copy
// fewer and the shelf count is untouched. The guard keeps
// available_count <= total_copies after the decrement.
func (r *bookRepository) RetireCopy(ctx context.Context, ext sqlx.ExtContext, bookID int) error {
	q := fmt.Sprintf(`
update %s
    set total_copies = total_copies - 1
where id = $1 and total_copies > available_count`, booksTableName)

	res, err := ext.ExecContext(ctx, q, bookID)
	if err != nil {
		return errors.Wrap(err, "retire copy")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Errorf("book %d: no outstanding copy to retire", bookID)
	}
	return nil
}
