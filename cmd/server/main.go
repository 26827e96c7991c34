package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-labor-insights/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-labor-insights/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-labor-insights/internal/core/insight"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/ogurasousui/codex-labor-insights/internal/core/reconcile"
	"github.com/ogurasousui/codex-labor-insights/internal/platform/config"
	pg "github.com/ogurasousui/codex-labor-insights/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-labor-insights/internal/platform/logging"
	"github.com/ogurasousui/codex-labor-insights/internal/platform/server"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	policy, err := insight.ParsePolicy(cfg.Insights.AttributionPolicy)
	if err != nil {
		log.Fatalf("invalid attribution policy: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database, cfg.Insights.Location, logger)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	sources := labor.Sources{
		Stores:        postgres.NewStoreRepository(dbPool),
		Staff:         postgres.NewStaffRepository(dbPool),
		Shifts:        postgres.NewShiftRepository(dbPool),
		ClockEvents:   postgres.NewClockEventRepository(dbPool),
		Sales:         postgres.NewSalesRepository(dbPool),
		Contributions: postgres.NewContributionRepository(dbPool),
	}
	upstream := labor.NewUpstream(cfg.Upstream.Retries(), cfg.Upstream.InitialBackoff, logger)
	hours := insight.HourRange{First: cfg.Insights.ReportableHours.First, Last: cfg.Insights.ReportableHours.Last}

	insightSvc := insight.NewService(sources, insight.Settings{
		Location:  cfg.Insights.Location,
		Hours:     hours,
		Threshold: cfg.Insights.UnderutilisedThreshold,
		Policy:    policy,
	}, upstream, labor.SystemClock(), pg.NewTransactionManager(dbPool), logger)

	reconcileSvc := reconcile.NewService(sources, reconcile.Settings{
		Location:         cfg.Insights.Location,
		Hours:            hours,
		ToleranceMinutes: cfg.Insights.VarianceToleranceMinutes,
	}, nil, upstream, logger)

	laborHandler := handler.NewLaborGrpcHandler(reconcileSvc, insightSvc, cfg.Insights.Location, logger)
	grpcServer := server.New(cfg.Server.ListenAddr, laborHandler, logger, cfg.Server.RequestTimeout)

	if err := grpcServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
