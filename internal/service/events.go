package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/model"
)

// publishOrderEvent emits an audit event, best effort. A broker failure is
// logged and never fails the request that produced it.
func (s *Service) publishOrderEvent(eventType string, order model.Order) {
	if s.producer == nil {
		return
	}
	event := model.OrderEvent{
		EventUid:   uuid.NewString(),
		Type:       eventType,
		OrderUid:   order.OrderUid,
		Username:   order.Username,
		BookUid:    order.BookUid,
		Status:     order.Status,
		OccurredAt: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.log.Error("marshal order event", zap.Error(err))
		return
	}
	if _, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(order.OrderUid),
		Value: sarama.ByteEncoder(value),
	}); err != nil {
		s.log.Error("publish order event", zap.Error(err), zap.String("orderUid", order.OrderUid))
	}
}

// SaveOrderEvent persists a consumed audit event.
func (s *Service) SaveOrderEvent(ctx context.Context, event model.OrderEvent) error {
	return s.events.SaveOrderEvent(ctx, event)
}
