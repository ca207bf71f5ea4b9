package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/model"
)

// CreateOrder registers a loan request in PROCESSING. Inventory is not
// touched here: a copy is allocated only at physical handout, when the
// order moves to CHECKED_OUT.
func (s *Service) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.Order, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if req.DueDate.Before(today) {
		return model.Order{}, errs.ErrInvalidDate
	}

	order, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		return model.Order{}, err
	}
	s.metrics.Transition(string(order.Status))
	s.publishOrderEvent(model.EventOrderCreated, order)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, actor model.Actor, orderUid string) (model.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderUid)
	if err != nil {
		return model.Order{}, err
	}
	if !canView(actor, order) {
		return model.Order{}, errs.ErrForbidden
	}
	return order, nil
}

// ListOrders lets administrators filter freely; everyone else is pinned to
// their own orders whatever the requested filter says.
func (s *Service) ListOrders(ctx context.Context, actor model.Actor, filter model.OrdersFilter) ([]model.Order, error) {
	if !actor.IsAdmin() {
		filter.Username = actor.Username
	}
	return s.orders.ListOrders(ctx, filter)
}

// UpdateOrderStatus applies one transition of the order state machine.
// Checks run in a fixed order: existence, access, transition graph, then
// inventory inside the repository transaction.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor model.Actor, orderUid string, next model.OrderStatus) (model.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderUid)
	if err != nil {
		return model.Order{}, err
	}
	if !canMutate(actor, order) || !canTransition(actor, next) {
		return model.Order{}, errs.ErrForbidden
	}
	if !order.Status.CanTransitionTo(next) {
		return model.Order{}, errs.ErrInvalidTransition
	}

	updated, err := s.orders.ApplyTransition(ctx, order, next)
	if err != nil {
		if errors.Is(err, errs.ErrNoAvailableCopies) {
			s.metrics.InventoryRejected()
		}
		return model.Order{}, err
	}
	s.log.Info("order transition",
		zap.String("orderUid", updated.OrderUid),
		zap.String("from", string(order.Status)),
		zap.String("to", string(updated.Status)),
	)
	s.metrics.Transition(string(updated.Status))
	s.publishOrderEvent(model.EventOrderStatusChanged, updated)
	return updated, nil
}

// DeleteOrder is administrator-only. The repository reconciles inventory
// when the deleted order was holding a copy.
func (s *Service) DeleteOrder(ctx context.Context, actor model.Actor, orderUid string) error {
	if !actor.IsAdmin() {
		return errs.ErrForbidden
	}
	order, err := s.orders.GetOrder(ctx, orderUid)
	if err != nil {
		return err
	}
	if err := s.orders.DeleteOrder(ctx, orderUid); err != nil {
		return err
	}
	s.publishOrderEvent(model.EventOrderDeleted, order)
	return nil
}

func (s *Service) ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error) {
	return s.books.ListBooks(ctx, showAll, page, size)
}

func (s *Service) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	return s.books.GetBook(ctx, bookUid)
}
