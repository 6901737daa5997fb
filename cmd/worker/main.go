package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/config"
	"github.com/didyoudo/didyoudo/internal/database"
	"github.com/didyoudo/didyoudo/internal/logger"
	"github.com/didyoudo/didyoudo/internal/notify"
	"github.com/didyoudo/didyoudo/internal/prefs"
	"github.com/didyoudo/didyoudo/internal/queue"
	"github.com/didyoudo/didyoudo/internal/report"
	"github.com/didyoudo/didyoudo/internal/scheduler"
	"github.com/didyoudo/didyoudo/internal/services/mailer"
	"github.com/didyoudo/didyoudo/internal/workers"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Preference store and notification sink share the Redis deployment
	prefStore, err := prefs.NewRedisStoreFromURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := prefStore.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	sink, err := notify.NewRedisSink(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_create_notification_sink", zap.Error(err))
	}
	defer func() {
		if err := sink.Close(); err != nil {
			zapLogger.Warn("failed_to_close_notification_sink", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_redis")

	// Connect to RabbitMQ with exponential backoff
	const maxRetries = 10
	const initialDelay = 2 * time.Second
	var jobQueue queue.JobQueue
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err = queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err == nil {
			break
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
			zap.Int("max_retries", maxRetries),
			zap.Error(lastErr),
		)
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Delivery publisher moves due reminders toward devices
	publisher, err := notify.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_create_delivery_publisher", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Warn("failed_to_close_delivery_publisher", zap.Error(err))
		}
	}()

	// Initialize services and job processors
	taskRepo := database.NewTaskRepository(db)
	sched := scheduler.New(sink, zapLogger)
	sender := mailer.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom, zapLogger)
	reportService := report.NewService(taskRepo, sender, zapLogger)

	replanner := workers.NewReplanner(taskRepo, prefStore, sched, zapLogger)
	dispatcher := workers.NewReportDispatcher(reportService, cfg.UserEmail, zapLogger)
	processor := workers.NewProcessor(jobQueue, replanner, dispatcher, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming and processing jobs
	go func() {
		if err := processor.Run(ctx, cfg.RabbitMQPrefetch); err != nil && err != context.Canceled {
			zapLogger.Error("processor_stopped_with_error", zap.Error(err))
		}
	}()

	// Recurring jobs: replan at the configured reminder time, weekly
	// report at the configured day and time, due-notification sweep
	deliverySweep := notify.NewDispatcher(sink, publisher, zapLogger).WithReminderMarker(taskRepo)
	cronJobs := workers.NewJobScheduler(jobQueue, prefStore, deliverySweep, zapLogger)
	if err := cronJobs.Start(ctx); err != nil {
		zapLogger.Fatal("failed_to_start_cron_scheduler", zap.Error(err))
	}
	defer cronJobs.Stop()

	// Start DLQ garbage collector
	// Run every hour, retain messages for 24 hours
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	zapLogger.Info("worker_started")

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("worker_stopped")
}
