package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casedesk/casedesk/internal/access"
	"github.com/casedesk/casedesk/internal/app"
	"github.com/casedesk/casedesk/internal/bootstrap"
	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/notify"
	"github.com/casedesk/casedesk/internal/observability"
	"github.com/casedesk/casedesk/internal/permissions"
	"github.com/casedesk/casedesk/internal/platform/cache"
	"github.com/casedesk/casedesk/internal/platform/db"
	"github.com/casedesk/casedesk/internal/registry"
	"github.com/casedesk/casedesk/internal/roles"
	"github.com/casedesk/casedesk/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := cache.New(cfg.RedisAddr)
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo)
	denylist := identity.NewTokenDenylist(redisClient, "")
	identityMiddleware := identity.Middleware{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Denylist: denylist,
		Logger:   logger,
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	sink := notify.NewAsynqSink(cfg.RedisAddr)
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("notify sink close", slog.Any("error", err))
		}
	}()

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)

	registryRepo := registry.NewRepository(dbpool)
	registryService := registry.NewService(registryRepo)

	permissionsRepo := permissions.NewRepository(dbpool)
	permissionsService := permissions.NewService(permissionsRepo, registryRepo, rolesRepo, auditLogger, sink, logger)

	resolver := access.NewResolver(identityService, permissionsRepo, access.DefaultShortcutPolicy(), logger)
	guard := access.Guard{Resolver: resolver}

	bootstrapper := bootstrap.New(registryRepo, rolesRepo, permissionsRepo, logger)
	if err := bootstrapper.Run(ctx); err != nil {
		logger.Error("bootstrap registry", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Identity:           identityMiddleware,
		AccessHandler:      access.NewHandler(logger, resolver, metrics),
		PermissionsHandler: permissions.NewHandler(logger, permissionsService, identityService, guard),
		RolesHandler:       roles.NewHandler(logger, rolesService, guard),
		RegistryHandler:    registry.NewHandler(logger, registryService, guard),
		BootstrapHandler:   bootstrap.NewHandler(logger, bootstrapper, resolver, cfg.BootstrapKeyHash),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
