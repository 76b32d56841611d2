package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/notify"
	"taskhub/internal/server"
	"taskhub/internal/storage/sqlite"
	"taskhub/internal/task"
	"taskhub/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("TASKHUB_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("TASKHUB_DB_PATH", "data/taskhub.db"), "Path to sqlite database file")
	smtpFlag := flag.String("smtp", util.EnvOrDefault("TASKHUB_SMTP_ADDR", ""), "SMTP host:port for notification delivery (empty disables email)")
	fromFlag := flag.String("from", util.EnvOrDefault("TASKHUB_MAIL_FROM", ""), "From address for notification email")
	adminFlag := flag.String("admin", util.EnvOrDefault("TASKHUB_ADMIN_EMAIL", ""), "Bootstrap admin identity")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("taskhub starting")

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewEmailer(*smtpFlag, *fromFlag, logger)
	core := task.NewEngine(store, store, notifier, logger)
	srv := server.New(core, store, logger, *adminFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
