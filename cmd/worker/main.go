package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/email"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/logging"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.NotificationsTopic != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
		defer consumer.Close()

		sender := email.NewSender(logger)
		go func() {
			err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
				event, err := kafka.DecodeBookingEvent(msg)
				if err != nil {
					logger.WithError(err).WithField("offset", msg.Offset).Warn("skip undecodable event")
					return nil
				}
				return sender.Send(ctx, event)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("consumer stopped")
			}
		}()
		logger.WithField("topic", cfg.Kafka.NotificationsTopic).Info("notification consumer started")
	} else {
		logger.Warn("kafka notifications not configured, consumer disabled")
	}

	// Completing finished stays is opt-in; see worker.completion_sweep_minutes.
	if cfg.Worker.CompletionSweepMinutes > 0 {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()

		var opts []booking.BookingServiceOption
		opts = append(opts, booking.WithLogger(logger))
		if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.BookingTopic != "" {
			producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
			defer producer.Close()
			opts = append(opts,
				booking.WithProducer(producer, cfg.Kafka.BookingTopic),
				booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
			)
		}
		bookingService := booking.NewBookingService(
			repository.NewBookingRepository(pool),
			repository.NewDestinationRepository(pool),
			booking.NewLocalLocker(cfg.Booking.LockWait()),
			opts...,
		)

		ticker := time.NewTicker(time.Duration(cfg.Worker.CompletionSweepMinutes) * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				completed, err := bookingService.CompleteFinishedStays(ctx)
				if err != nil {
					logger.WithError(err).Error("complete finished stays")
					continue
				}
				if len(completed) > 0 {
					logger.WithField("count", len(completed)).Info("completed finished stays")
				}
			case <-ctx.Done():
				logger.Info("shutting down worker")
				return
			}
		}
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
}
