// Package main 外联邮件发送进程入口（mail-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"leadgen-api/internal/config"
	"leadgen-api/internal/infrastructure/messaging"
	"leadgen-api/internal/wire"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/tracer"
)

const requeueInterval = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging := cfg.Observability.Logging
	logger.Init(logger.Options{
		Level:      logging.Level,
		Format:     logging.Format,
		Output:     logging.Output,
		MaxSizeMB:  logging.MaxSizeMB,
		MaxBackups: logging.MaxBackups,
		MaxAgeDays: logging.MaxAgeDays,
		Compress:   logging.Compress,
	})
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "mail-worker",
		Environment: cfg.App.Env,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	worker.Consumer.RegisterHandler(messaging.MessageTypeMailSend, worker.Deliverer.Handle)
	if err := worker.Consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	logger.Info(ctx, "mail-worker started", "stream", string(messaging.StreamMailOutbound))

	go worker.Consumer.MonitorDLQ(ctx, cfg.Messaging.RedisStream.DLQAlertThreshold)
	go requeueLoop(ctx, worker)

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down mail-worker...")
	worker.Consumer.Stop()

	select {
	case <-worker.Consumer.Done():
	case <-time.After(30 * time.Second):
		logger.Warn(context.Background(), "consumer did not stop in time")
	}
	logger.Info(context.Background(), "mail-worker exited")
}

// requeueLoop 定期重新投递发布失败或中断的邮件
func requeueLoop(ctx context.Context, worker *wire.Worker) {
	ticker := time.NewTicker(requeueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := worker.Deliverer.Requeue(ctx, 100)
			if err != nil {
				logger.Error(ctx, "failed to requeue mails", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "requeued mails", "count", n)
			}
		}
	}
}
