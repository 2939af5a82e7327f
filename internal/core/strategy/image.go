package strategy

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// ImageOCR sweeps the source file directly. Only JPEG/PNG sources qualify.
type ImageOCR struct {
	sweep Sweeper
}

func NewImageOCR(sweep Sweeper) *ImageOCR {
	return &ImageOCR{sweep: sweep}
}

func (s *ImageOCR) Config() Config {
	c := ocrThresholds
	c.Name = DirectImage
	return c
}

func (s *ImageOCR) Execute(ctx context.Context, src Source) (ocr.ExtractionResult, error) {
	if src.Format != constants.IMAGE {
		return ocr.ExtractionResult{}, fmt.Errorf("%w: %s needs an image, got %q", common.ErrNotApplicable, DirectImage, src.Format)
	}
	return s.sweep.Run(ctx, src.Path, DirectImage)
}
