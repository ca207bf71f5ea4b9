package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/msmirnov/school-library/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type OrderRepository interface {
	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.Order, error)
	GetOrder(ctx context.Context, orderUid string) (model.Order, error)
	ListOrders(ctx context.Context, filter model.OrdersFilter) ([]model.Order, error)
	ApplyTransition(ctx context.Context, order model.Order, next model.OrderStatus) (model.Order, error)
	DeleteOrder(ctx context.Context, orderUid string) error
}

// BookRepository owns the available-copy ledger. The increment/decrement
// pair is the only write path to available_count and always runs on the
// transaction of the order write that triggered it.
type BookRepository interface {
	ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	DecrementAvailable(ctx context.Context, ext sqlx.ExtContext, bookID int) error
	IncrementAvailable(ctx context.Context, ext sqlx.ExtContext, bookID int) error
	RetireCopy(ctx context.Context, ext sqlx.ExtContext, bookID int) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, username string) (model.User, error)
}

type EventRepository interface {
	SaveOrderEvent(ctx context.Context, event model.OrderEvent) error
}

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	ordersTableName      = `orders`
	booksTableName       = `books`
	usersTableName       = `users`
	orderEventsTableName = `order_events`
)

var (
	_ OrderRepository = (*orderRepository)(nil)
	_ BookRepository  = (*bookRepository)(nil)
	_ UserRepository  = (*userRepository)(nil)
	_ EventRepository = (*eventRepository)(nil)
)
