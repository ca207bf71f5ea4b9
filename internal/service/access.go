package service

import (
	"github.com/msmirnov/school-library/internal/model"
)

// canView allows owners and administrators to read an order.
func canView(actor model.Actor, order model.Order) bool {
	return actor.Username == order.Username || actor.IsAdmin()
}

// canMutate is the same rule for status changes; inventory-affecting
// transitions are further restricted in canTransition.
func canMutate(actor model.Actor, order model.Order) bool {
	return actor.Username == order.Username || actor.IsAdmin()
}

// canTransition restricts physical handout: only staff move an order into
// CHECKED_OUT or LOST, since only staff touch the shelf.
func canTransition(actor model.Actor, next model.OrderStatus) bool {
	if next.ConsumesCopy() {
		return actor.IsAdmin()
	}
	return true
}
