package handler

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/model"
)

type saveOrderEvent func(ctx context.Context, event model.OrderEvent) error

type Consumer struct {
	saveEventHandler saveOrderEvent
	log              *zap.Logger
}

func NewConsumer(saveEvent saveOrderEvent, log *zap.Logger) *Consumer {
	return &Consumer{
		saveEventHandler: saveEvent,
		log:              log.Named("consumer"),
	}
}

// Setup runs at the start of every consumer-group session; rebalances
// start new sessions on the same Consumer, so it must stay re-entrant.
func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var event model.OrderEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				consumer.log.Error("unmarshal order event", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.saveEventHandler(context.Background(), event); err != nil {
				consumer.log.Error("consumer.saveEventHandler", zap.Error(err))
				continue
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
