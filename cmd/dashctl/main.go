package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/config"
	"github.com/spec-kit/dashboard/internal/gateway"
	"github.com/spec-kit/dashboard/internal/guard"
	"github.com/spec-kit/dashboard/internal/observability"
	"github.com/spec-kit/dashboard/internal/persistence"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := persistence.OpenSessionStore(ctx, *cfg, logger)
	if err != nil {
		logger.Error("failed to open session store", zap.Error(err))
		return 1
	}
	defer closeStore()

	identity := gateway.New(cfg.Identity.BaseURL,
		gateway.WithTimeout(cfg.Identity.Timeout()),
		gateway.WithLogger(logger),
		gateway.WithUserAgent("dashctl/"+cfg.App.Version),
	)
	machine := auth.New(ctx, gateway.NewIdentityClient(identity), store,
		auth.WithLogger(logger),
		auth.WithRedirects(cfg.Identity.ResetRedirectURL, cfg.Identity.MagicRedirectURL),
	)

	routes, err := guard.LoadRoutes(cfg.Routes.File)
	if err != nil {
		logger.Error("failed to load routes", zap.Error(err))
		return 1
	}

	cli := &cli{
		machine: machine,
		guard:   guard.New(routes),
		out:     os.Stdout,
		prompt:  newTerminalPrompt(os.Stdin, os.Stderr),
	}
	if err := cli.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "dashctl:", err)
		return 1
	}
	return 0
}
