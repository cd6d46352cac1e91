package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"snapvault/config"
	kafkactrl "snapvault/internal/controller/kafka"
	"snapvault/internal/controller/restapi"
	"snapvault/internal/controller/worker/outbox"
	infrakafka "snapvault/internal/infrastructure/kafka"
	"snapvault/internal/infrastructure/processor"
	"snapvault/internal/repo/persistent"
	"snapvault/internal/usecase/image"
	"snapvault/internal/usecase/transcoder"
	"snapvault/pkg/httpserver"
	"snapvault/pkg/kafka/consumer"
	"snapvault/pkg/kafka/producer"
	"snapvault/pkg/logger"
	"snapvault/pkg/postgres"
	"snapvault/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	blobRepo := persistent.NewBlobRepo(s3c, cfg.S3.Bucket, cfg.S3.PublicURL)
	metadataRepo := persistent.NewImageMetadataRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)

	// Use-Case

	imageUseCase := image.New(blobRepo, metadataRepo, outboxRepo, pg, cfg.Upload, l)
	transcoderUseCase := transcoder.New(blobRepo, metadataRepo, processor.New(), l)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Outbox Relay Worker
	outboxRelay := outbox.New(
		imageUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic),
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	// Transcode worker pool fed by Kafka
	transcodeController := kafkactrl.New(
		transcoderUseCase,
		infrakafka.NewEventConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.RetryInterval,
		cfg.KafkaController.MaxAttempts,
		runtime.NumCPU(),
	)

	// HTTP Server
	httpServer := httpserver.New(
		l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(int(cfg.Upload.MaxFileSize)+1024*1024),
	)
	restapi.NewRouter(httpServer.App, cfg, imageUseCase, l)

	// Start Components
	err = outboxRelay.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelay.Start: %w", err))
	}
	err = transcodeController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - transcodeController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	relayShutdownCtx, relayShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer relayShutdownCancel()
	err = outboxRelay.Shutdown(relayShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelay.Shutdown: %w", err))
	}

	tcShutdownCtx, tcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer tcShutdownCancel()
	err = transcodeController.Shutdown(tcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - transcodeController.Shutdown: %w", err))
	}
}
