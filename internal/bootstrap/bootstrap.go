// Package bootstrap assembles the extraction stack from configuration for the commands.
package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/cache"
	"github.com/joseph-ayodele/docextract/internal/core/filename"
	"github.com/joseph-ayodele/docextract/internal/core/ocr"
	"github.com/joseph-ayodele/docextract/internal/core/pipeline"
	"github.com/joseph-ayodele/docextract/internal/core/strategy"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

// NewLogger builds the process logger and installs it as the slog default.
func NewLogger(level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// Stack is everything a command needs to run extractions.
type Stack struct {
	Pipeline *pipeline.Pipeline
	Cache    *cache.BoltCache // nil when OCR_CACHE_PATH is unset
}

func (s *Stack) Close() error {
	if s.Cache != nil {
		return s.Cache.Close()
	}
	return nil
}

// BuildPipeline wires recognizer, sweep, rasterizer and the cascade.
func BuildPipeline(cfg common.OCRConfig, logger *slog.Logger) (*Stack, error) {
	rec, err := ocr.NewRecognizer(cfg.Backend, cfg.Tesseract, cfg.TessdataDir, logger)
	if err != nil {
		return nil, err
	}

	configs := ocr.DefaultConfigs
	if cfg.Whitelist != "" {
		configs = make([]ocr.RecognizerConfig, len(ocr.DefaultConfigs))
		for i, c := range ocr.DefaultConfigs {
			c.Whitelist = cfg.Whitelist
			configs[i] = c
		}
	}
	sweep := ocr.NewConfigSweep(rec, configs, logger)
	raster := ocr.NewPDFRasterizer(cfg.Pdftoppm, ocr.ExecRunner{}, logger)
	analyzer := filename.NewAnalyzer(logger)

	stack := &Stack{}
	strategies := strategy.DefaultCascade(raster, sweep, analyzer, logger)
	if cfg.CachePath != "" {
		c, err := cache.Open(cfg.CachePath, cfg.CacheTTL, logger)
		if err != nil {
			return nil, err
		}
		if _, err := c.ClearExpired(); err != nil {
			logger.Warn("failed to clear expired cache entries", "error", err)
		}
		stack.Cache = c
		strategies = strategy.WithCache(strategies, c, logger)
	}
	stack.Pipeline = pipeline.New(strategies, analyzer, logger)
	return stack, nil
}

// OpenRuns opens and migrates the run database. An empty DSN yields nil, nil
// unless inMemory is set.
func OpenRuns(ctx context.Context, cfg common.DatabaseConfig, inMemory bool, logger *slog.Logger) (*repository.DB, repository.ExtractionRunRepository, error) {
	dsn := cfg.DSN
	if inMemory {
		dsn = ":memory:"
	}
	if dsn == "" {
		return nil, nil, nil
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:              dsn,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db, logger); err != nil {
		repository.Close(db, logger)
		return nil, nil, err
	}
	return db, repository.NewExtractionRunRepository(db, logger), nil
}
