package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rswinton/marginalia/internal/config"
	"github.com/rswinton/marginalia/internal/database"
	"github.com/rswinton/marginalia/internal/logging"
	"github.com/rswinton/marginalia/internal/server"
)

func main() {
	configPath := flag.String("config", "marginalia.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level)

	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(schedCtx)
		logger.Info("reminder scheduler started")
	} else {
		logger.Info("VAPID keys not configured, push reminders disabled")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("marginalia listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if sched := srv.PushScheduler(); sched != nil {
		sched.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
