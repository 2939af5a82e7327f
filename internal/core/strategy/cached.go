package strategy

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// ResultCache stores strategy results keyed by source file and strategy name.
type ResultCache interface {
	Get(path, strategy string) (ocr.ExtractionResult, bool)
	Put(path, strategy string, res ocr.ExtractionResult) error
}

type cached struct {
	inner  Strategy
	cache  ResultCache
	logger *slog.Logger
}

// WithCache wraps every strategy except filename analysis, which is cheaper than a lookup.
func WithCache(strategies []Strategy, c ResultCache, logger *slog.Logger) []Strategy {
	if c == nil {
		return strategies
	}
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]Strategy, len(strategies))
	for i, s := range strategies {
		if s.Config().Name == FilenameAnalysis {
			out[i] = s
			continue
		}
		out[i] = &cached{inner: s, cache: c, logger: logger}
	}
	return out
}

func (c *cached) Config() Config { return c.inner.Config() }

func (c *cached) Execute(ctx context.Context, src Source) (ocr.ExtractionResult, error) {
	name := c.inner.Config().Name
	if res, ok := c.cache.Get(src.Path, name); ok {
		res.Recount()
		if res.Metadata == nil {
			res.Metadata = map[string]string{}
		}
		res.Metadata["from_cache"] = "true"
		c.logger.Debug("strategy cache hit", "strategy", name, "path", src.Path, "chars", res.CharCount)
		return res, nil
	}

	res, err := c.inner.Execute(ctx, src)
	if err != nil {
		return res, err
	}
	if err := c.cache.Put(src.Path, name, res); err != nil {
		c.logger.Warn("strategy cache write failed", "strategy", name, "path", src.Path, "error", err)
	}
	return res, nil
}
