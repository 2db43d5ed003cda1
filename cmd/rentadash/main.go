// Package main запускает HTTP-сервер сервиса rentadash.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akulagin/rentadash-system/internal/binance"
	"github.com/akulagin/rentadash-system/internal/config"
	"github.com/akulagin/rentadash-system/internal/handler"
	"github.com/akulagin/rentadash-system/internal/middleware"
	"github.com/akulagin/rentadash-system/internal/rates"
	"github.com/akulagin/rentadash-system/internal/repository"
	"github.com/akulagin/rentadash-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	binanceClient := binance.NewClient(cfg.BinanceWSURL, cfg.BinanceAPIURL, logger)
	engine := rates.NewEngine(binanceClient, cfg.RatesPublishInterval, logger)
	binanceClient.OnStatus(engine.SetConnected)

	svc := service.NewService(repo, engine, cfg.AllowedLoginList())
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Стартовые котировки по REST, чтобы не ждать первых сделок из стрима
	g.Go(func() error {
		binanceClient.Bootstrap(ctx)
		return nil
	})

	// Чтение потока сделок Binance с переподключением
	g.Go(func() error {
		return binanceClient.Run(ctx)
	})

	// Публикация кросс-курсов на фиксированном интервале
	g.Go(func() error {
		engine.Run(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting rentadash server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
