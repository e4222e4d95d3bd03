package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/dashboard/internal/api/http"
	"github.com/spec-kit/dashboard/internal/api/http/handlers"
	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/config"
	"github.com/spec-kit/dashboard/internal/events"
	"github.com/spec-kit/dashboard/internal/gateway"
	"github.com/spec-kit/dashboard/internal/guard"
	"github.com/spec-kit/dashboard/internal/observability"
	"github.com/spec-kit/dashboard/internal/persistence"
	"github.com/spec-kit/dashboard/internal/session"
	"github.com/spec-kit/dashboard/internal/worker"
)

func main() {
	cfg, err := config.Load()
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	store, closeStore, err := persistence.OpenSessionStore(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer closeStore()

	dispatcher := events.NewInMemoryDispatcher()
	audit := worker.NewSessionAuditWorker(dispatcher, logger.Named("audit"), 0)
	audit.Start()
	defer audit.Stop()

	gatewayOpts := []gateway.Option{
		gateway.WithTimeout(cfg.Identity.Timeout()),
		gateway.WithLogger(logger.Named("gateway")),
		gateway.WithMetrics(metrics),
		gateway.WithUserAgent("dashboard/" + cfg.App.Version),
	}
	identity := gateway.New(cfg.Identity.BaseURL, gatewayOpts...)
	machine := auth.New(ctx, gateway.NewIdentityClient(identity), store,
		auth.WithLogger(logger.Named("auth")),
		auth.WithMetrics(metrics),
		auth.WithDispatcher(dispatcher),
		auth.WithRedirects(cfg.Identity.ResetRedirectURL, cfg.Identity.MagicRedirectURL),
	)

	routes, err := guard.LoadRoutes(cfg.Routes.File)
	if err != nil {
		logger.Fatal("failed to load routes", zap.Error(err))
	}
	navigation := guard.New(routes)
	unsubscribe := machine.Subscribe(func(st auth.State) {
		logger.Debug("auth state", zap.String("status", string(st.Status())))
	})
	defer unsubscribe()

	deps := map[string]session.Pinger{}
	if pinger, ok := store.(session.Pinger); ok {
		deps["session_store"] = pinger
	}

	var proxy *handlers.ProxyHandler
	if cfg.Business.BaseURL != "" {
		business := gateway.New(cfg.Business.BaseURL, gatewayOpts...)
		proxy = handlers.NewProxyHandler(gateway.NewAuthorizedClient(business, machine, machine), navigation.SignIn())
	}

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Session: handlers.NewSessionHandler(machine),
		Screens: handlers.NewScreenHandler(machine),
		Proxy:   proxy,
		Metrics: adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		Guard:   httptransport.GuardMiddleware(navigation, machine, metrics),
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("console listening", zap.String("addr", cfg.App.Addr()), zap.String("status", string(machine.State().Status())))
		return app.Listen(cfg.App.Addr())
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("console stopped", zap.Error(err))
	}
}
