package service

import (
	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/metrics"
	"github.com/msmirnov/school-library/internal/repository"
)

type Service struct {
	log     *zap.Logger
	orders  repository.OrderRepository
	books   repository.BookRepository
	users   repository.UserRepository
	events  repository.EventRepository
	metrics *metrics.OrderMetrics

	producer sarama.SyncProducer // nil when kafka is disabled
	topic    string
}

type Option func(*Service)

func WithProducer(producer sarama.SyncProducer, topic string) Option {
	return func(s *Service) {
		s.producer = producer
		s.topic = topic
	}
}

func NewService(
	orders repository.OrderRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	log *zap.Logger,
	ops ...Option,
) *Service {
	s := &Service{
		log:     log,
		orders:  orders,
		books:   books,
		users:   users,
		events:  events,
		metrics: metrics.NewOrderMetrics(),
	}
	for _, op := range ops {
		op(s)
	}
	return s
}
