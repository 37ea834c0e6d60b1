package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "life-reflection-api/configs"
	"life-reflection-api/internal/app"
	"life-reflection-api/internal/observability"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .envファイルを読み込み
	envErr := godotenv.Load()

	// 設定の読み込み
	cfg := config.LoadConfig()
	logger := observability.Init(observability.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if envErr != nil {
		logger.Debug(".envファイルを読み込めませんでした", slog.Any("error", envErr))
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("サーバーを停止します", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting Life Reflection API server",
			slog.String("addr", srv.Addr),
			slog.String("provider", application.Provider()),
			slog.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("サーバーの起動に失敗しました: %w", err)
		}
	case <-ctx.Done():
		logger.Info("シャットダウンを開始します")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗しました: %w", err)
	}
	application.Scheduler.Stop(shutdownCtx)
	logger.Info("サーバーを停止しました")
	return nil
}
