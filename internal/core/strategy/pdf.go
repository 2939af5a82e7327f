package strategy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// PDFRaster renders the first page at a fixed preset and sweeps the image.
// The rendered image is deleted before Execute returns.
type PDFRaster struct {
	name       string
	preset     ocr.ResolutionPreset
	rasterizer ocr.Rasterizer
	sweep      Sweeper
	logger     *slog.Logger
}

func NewPDFRaster(name string, preset ocr.ResolutionPreset, r ocr.Rasterizer, sweep Sweeper, logger *slog.Logger) *PDFRaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFRaster{name: name, preset: preset, rasterizer: r, sweep: sweep, logger: logger}
}

func (s *PDFRaster) Config() Config {
	c := ocrThresholds
	c.Name = s.name
	return c
}

func (s *PDFRaster) Execute(ctx context.Context, src Source) (ocr.ExtractionResult, error) {
	if src.Format != constants.PDF {
		return ocr.ExtractionResult{}, fmt.Errorf("%w: %s needs a pdf, got %q", common.ErrNotApplicable, s.name, src.Format)
	}

	img, err := s.rasterizer.Render(ctx, src.Path, s.preset)
	if err != nil {
		return ocr.ExtractionResult{}, fmt.Errorf("%s: %w", s.name, err)
	}
	defer s.cleanup(img)

	res, err := s.sweep.Run(ctx, img, s.name)
	if err != nil {
		return ocr.ExtractionResult{}, fmt.Errorf("%s: %w", s.name, err)
	}
	res.Metadata["resolution"] = strconv.Itoa(s.preset.DPI)
	return res, nil
}

// cleanup is best-effort; failures are logged, never returned.
func (s *PDFRaster) cleanup(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove rasterized page", "strategy", s.name, "path", path, "error", err)
	}
}
