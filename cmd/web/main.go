package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"payment-failure-monitor/internal/activity"
	"payment-failure-monitor/internal/config"
	"payment-failure-monitor/internal/handlers"
	"payment-failure-monitor/internal/helpers/fastclient"
	"payment-failure-monitor/internal/helpers/logs"
	"payment-failure-monitor/internal/notify"
	"payment-failure-monitor/internal/payment"
	"payment-failure-monitor/internal/record"
	"payment-failure-monitor/internal/stripe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	logs.IsDebugMode = logs.DebugEnabled(cfg.Debug)

	activityLog := activity.New(activity.DefaultCapacity)
	httpClient := fastclient.New()

	notifier, err := notify.NewSMTP(cfg, activityLog)
	if err != nil {
		log.Fatalf("Could not create mail client: %v", err)
	}

	var (
		recorder payment.Recorder
		rdb      *redis.Client
	)
	switch cfg.RecorderBackend {
	case config.BackendRedis:
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DB:           0,
			ReadTimeout:  cfg.OutboundTimeout,
			WriteTimeout: cfg.OutboundTimeout,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Could not connect to Redis: %v", err)
		}
		recorder = record.NewRedisStream(rdb, cfg.RedisStream, activityLog)
	default:
		recorder = record.NewAirtable(cfg, httpClient, activityLog)
	}

	h := &handlers.Handlers{
		Dispatcher: &payment.Dispatcher{
			Handler: &payment.FailureHandler{
				Notifier: notifier,
				Recorder: recorder,
				Log:      activityLog,
			},
			Fetcher: stripe.NewClient(cfg, httpClient),
			Log:     activityLog,
		},
		Notifier: notifier,
		Log:      activityLog,
	}

	app := handlers.NewApp()
	h.Register(app)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	serveErr, err := handlers.Start(app, cfg.Addr(), activityLog)
	if err != nil {
		log.Fatalf("Error starting server: %v", err)
	}

	select {
	case <-c:
	case err := <-serveErr:
		if rdb != nil {
			_ = rdb.Close()
		}
		log.Fatalf("Server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer func() {
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Printf("Error closing Redis client: %v", err)
			}
		}
		cancel()
	}()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
}
