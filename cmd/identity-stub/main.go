package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/dashboard/internal/config"
	"github.com/spec-kit/dashboard/internal/identitystub"
	"github.com/spec-kit/dashboard/internal/observability"
)

func main() {
	cfg, err := config.LoadStub()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := identitystub.NewService(identitystub.Options{
		Secret:     cfg.Stub.JWTSecret,
		TokenTTL:   time.Duration(cfg.Stub.TokenTTLMinutes) * time.Minute,
		BcryptCost: cfg.Stub.BcryptCost,
		Logger:     logger,
	})
	app := identitystub.NewApp(svc)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("identity stub listening", zap.String("addr", cfg.Stub.Addr()))
		return app.Listen(cfg.Stub.Addr())
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return app.ShutdownWithTimeout(5 * time.Second)
	})

	if err := group.Wait(); err != nil {
		logger.Error("identity stub stopped", zap.Error(err))
	}
}
