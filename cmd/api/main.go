package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"customerhub/internal/config"
	"customerhub/internal/httpserver"
	"customerhub/internal/notify"
	customersvc "customerhub/internal/service/customer"
	"customerhub/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	customerRepo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	queue, closeQueue := newQueue(ctx, cfg.Notify, logger)
	defer closeQueue()
	dispatcher, err := notify.NewDispatcher(queue, newSender(ctx, cfg.Notify, logger), cfg.Notify.MailFrom, logger)
	if err != nil {
		logger.Fatalf("init notifier: %v", err)
	}
	notifyCtx, stopNotify := context.WithCancel(ctx)
	notifyDone := make(chan struct{})
	go func() {
		defer close(notifyDone)
		_ = dispatcher.Run(notifyCtx)
	}()

	customerService := customersvc.New(customerRepo, dispatcher, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CustomerSvc:    customerService,
		FrontendOrigin: cfg.FrontendOrigin,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (store=%s)", cfg.HTTPAddr, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}

	stopNotify()
	select {
	case <-notifyDone:
	case <-shutdownCtx.Done():
		logger.Printf("notifier did not stop before timeout")
	}
}

// newQueue uses Redis when configured and reachable, otherwise an in-process channel.
func newQueue(ctx context.Context, cfg config.NotifyConfig, logger *log.Logger) (notify.Queue, func()) {
	if cfg.RedisAddr == "" {
		return notify.NewChannelQueue(cfg.QueueSize), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Printf("redis %s unreachable, using in-memory welcome queue: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return notify.NewChannelQueue(cfg.QueueSize), func() {}
	}
	logger.Printf("welcome queue on redis %s key=%s", cfg.RedisAddr, cfg.QueueKey)
	return notify.NewRedisQueue(client, cfg.QueueKey, cfg.QueueSize), func() { _ = client.Close() }
}

func newSender(ctx context.Context, cfg config.NotifyConfig, logger *log.Logger) notify.Sender {
	if cfg.SESAccessKey == "" || cfg.SESSecretKey == "" {
		logger.Printf("SES credentials not set, welcome emails will only be logged")
		return notify.NewLogSender(logger)
	}
	sender, err := notify.NewSESSender(ctx, cfg.SESAccessKey, cfg.SESSecretKey, cfg.SESRegion, logger)
	if err != nil {
		logger.Printf("init SES sender, falling back to log sender: %v", err)
		return notify.NewLogSender(logger)
	}
	return sender
}
