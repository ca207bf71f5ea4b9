package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/model"
)

type eventRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewEventRepository(db *sqlx.DB, log *zap.Logger) (*eventRepository, error) {
	return &eventRepository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

// SaveOrderEvent is idempotent on event_uid: the consumer delivers
// at-least-once.
func (r *eventRepository) SaveOrderEvent(ctx context.Context, event model.OrderEvent) error {
	q := fmt.Sprintf(`
insert into %s (event_uid, event_type, order_uid, username, book_uid, status, occurred_at)
values ($1, $2, $3, $4, $5, $6, $7)
on conflict (event_uid) do nothing`, orderEventsTableName)

	_, err := r.db.ExecContext(ctx, q,
		event.EventUid, event.Type, event.OrderUid, event.Username, event.BookUid, event.Status, event.OccurredAt)
	return err
}
