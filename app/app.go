package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msmirnov/school-library/config"
	"github.com/msmirnov/school-library/internal/handler"
	"github.com/msmirnov/school-library/internal/repository"
	"github.com/msmirnov/school-library/internal/server"
	"github.com/msmirnov/school-library/internal/service"
	"github.com/msmirnov/school-library/migrations"
	"github.com/msmirnov/school-library/pkg/auth"
	"github.com/msmirnov/school-library/pkg/kafka"
	"github.com/msmirnov/school-library/pkg/logger"
	"github.com/msmirnov/school-library/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "library")
	if cfg.JWT.SigningKey != "" {
		auth.JWTKey = []byte(cfg.JWT.SigningKey)
	}

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}

	bookRepo, err := repository.NewBookRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo books %v", err)
	}
	orderRepo, err := repository.NewOrderRepository(db, bookRepo, log)
	if err != nil {
		return fmt.Errorf("repo orders %v", err)
	}
	userRepo, err := repository.NewUserRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo users %v", err)
	}
	eventRepo, err := repository.NewEventRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo events %v", err)
	}

	ops := make([]service.Option, 0, 1)
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka producer %v", err)
		}
		defer producer.Close()
		ops = append(ops, service.WithProducer(producer, cfg.Kafka.Topic))
	}

	svc := service.NewService(orderRepo, bookRepo, userRepo, eventRepo, log, ops...)
	h := handler.New(svc, svc, log)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	g, gCtx := errgroup.WithContext(runCtx)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	g.Go(func() error {
		return srv.Run()
	})

	if cfg.Kafka.Enabled() {
		group, err := kafka.NewConsumerGroup(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka consumer group %v", err)
		}
		defer group.Close()
		consumer := handler.NewConsumer(svc.SaveOrderEvent, log)
		g.Go(func() error {
			for {
				if err := group.Consume(gCtx, []string{cfg.Kafka.Topic}, consumer); err != nil {
					log.Error("consumer group", zap.Error(err))
				}
				if gCtx.Err() != nil {
					return nil
				}
			}
		})
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	runCancel()
	if err := g.Wait(); err != nil {
		log.Error("run group", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
