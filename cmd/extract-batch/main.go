package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/bootstrap"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	repo "github.com/joseph-ayodele/docextract/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory to process documents from (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		workers    = flag.Int("workers", 0, "concurrent documents (defaults to QUEUE_WORKERS)")
		skipHidden = flag.Bool("skip-hidden", true, "skip hidden files and directories")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(filepath.Clean(*dir))
		*out = filepath.Join(parentDir, "extractions.xlsx")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *workers <= 0 {
		*workers = cfg.Queue.Workers
	}
	logger := bootstrap.NewLogger(cfg.SlogLevel(), true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs are always recorded; without DB_URL they go to an in-memory database.
	db, runsRepo, err := bootstrap.OpenRuns(ctx, cfg.Database, *inmem || cfg.Database.DSN == "", logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	stack, err := bootstrap.BuildPipeline(cfg.OCR, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer func() { _ = stack.Close() }()

	processor := core.NewProcessor(logger, stack.Pipeline, runsRepo)

	files, stats, err := ingest.ScanDirectory(*dir, *skipHidden)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("directory scanned", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched, "workers", *workers)

	started := time.Now()
	var ok, fallback, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			pctx := gctx
			if cfg.Queue.ProcessTimeout > 0 {
				var cancel context.CancelFunc
				pctx, cancel = context.WithTimeout(gctx, cfg.Queue.ProcessTimeout)
				defer cancel()
			}
			outcome, err := processor.ProcessFile(pctx, f, filepath.Base(f))
			switch {
			case err != nil:
				failed.Add(1)
				logger.Error("document failed", "path", f, "error", err)
			case outcome.Status == constants.RunStatusFallback:
				fallback.Add(1)
			default:
				ok.Add(1)
			}
			// a failed document never stops the batch; only cancellation does
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("batch interrupted", "error", err)
	}

	exporter := export.NewService(runsRepo, logger)
	xlsx, err := exporter.ExportRunsXLSX(context.WithoutCancel(ctx), started.Add(-time.Second), time.Time{})
	if err != nil {
		logger.Error("failed to export runs", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"documents", len(files),
		"ocr_ok", ok.Load(),
		"filename_only", fallback.Load(),
		"failed", failed.Load(),
		"elapsed_ms", time.Since(started).Milliseconds(),
		"output", *out,
	)
	if failed.Load() > 0 {
		os.Exit(3)
	}
}
