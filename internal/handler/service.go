package handler

import (
	"context"

	"github.com/msmirnov/school-library/internal/model"
	"github.com/msmirnov/school-library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type OrderService interface {
	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.Order, error)
	GetOrder(ctx context.Context, actor model.Actor, orderUid string) (model.Order, error)
	ListOrders(ctx context.Context, actor model.Actor, filter model.OrdersFilter) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, actor model.Actor, orderUid string, next model.OrderStatus) (model.Order, error)
	DeleteOrder(ctx context.Context, actor model.Actor, orderUid string) error
	ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
}

type AuthService interface {
	RegisterUser(ctx context.Context, user model.UserCreateRequest) error
	VerifyUser(ctx context.Context, username, password string) (model.User, error)
}

var (
	_ OrderService = (*service.Service)(nil)
	_ AuthService  = (*service.Service)(nil)
)
