package strategy

import (
	"log/slog"

	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// DefaultCascade returns the strategies in priority order.
// DirectImage is registered twice on purpose; see DESIGN.md.
func DefaultCascade(r ocr.Rasterizer, sweep Sweeper, fe FilenameExtractor, logger *slog.Logger) []Strategy {
	image := NewImageOCR(sweep)
	return []Strategy{
		image,
		NewPDFRaster(PDFToPNGHighRes, ocr.PresetHigh, r, sweep, logger),
		NewPDFRaster(PDFToPNGMedRes, ocr.PresetMedium, r, sweep, logger),
		NewPDFRaster(PDFToPNGLowRes, ocr.PresetLow, r, sweep, logger),
		image,
		NewFilename(fe),
	}
}
