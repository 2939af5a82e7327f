package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/docextract/internal/bootstrap"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core"
	"github.com/joseph-ayodele/docextract/internal/core/async"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	repo "github.com/joseph-ayodele/docextract/internal/repository"
	ingestsvc "github.com/joseph-ayodele/docextract/internal/services/ingest"
)

// extractionService is the health-checked service name for the extraction queue.
const extractionService = "docextract.Extraction"

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		bootstrap.NewLogger(slog.LevelInfo, true).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg.SlogLevel(), true)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if len(cfg.Ingest.InboxDirs) == 0 {
		logger.Error("missing INBOX_DIRS environment variable")
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, runsRepo, err := bootstrap.OpenRuns(ctx, cfg.Database, false, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)
	if db != nil {
		// Ping DB to ensure connectivity
		if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("DB_URL not set; runs will not be recorded")
	}

	stack, err := bootstrap.BuildPipeline(cfg.OCR, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer func() { _ = stack.Close() }()

	processor := core.NewProcessor(logger, stack.Pipeline, runsRepo)
	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)
	ingestion := ingestsvc.NewService(queue, logger)

	// gRPC server
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()

	// Register gRPC health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	// Set the service as serving (empty string means overall server health)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(extractionService, grpc_health_v1.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	logger.Info("docextractd listening", "addr", addr, "inbox_dirs", cfg.Ingest.InboxDirs)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("grpc serve failed", "error", err)
			stop()
		}
	}()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- ingestion.Watch(ctx, ingest.WatchConfig{
			Roots:       cfg.Ingest.InboxDirs,
			InitialScan: true,
			Debounce:    cfg.Ingest.Debounce,
			SkipHidden:  true,
		})
	}()

	select {
	case <-ctx.Done():
	case err := <-watchErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("inbox watcher stopped", "error", err)
		}
		stop()
	}

	logger.Info("shutting down")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout+10*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	if stack.Cache != nil {
		if stats, err := stack.Cache.Stats(); err == nil {
			logger.Info("result cache stats", "entries", stats.Entries, "expired", stats.Expired, "bytes", stats.Bytes)
		}
	}
	logger.Info("stopped")
}
