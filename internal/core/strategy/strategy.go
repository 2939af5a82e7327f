// Package strategy holds the members of the extraction cascade. Each one is a
// self-contained technique with its own acceptance thresholds.
package strategy

import (
	"context"

	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// Strategy names. DirectImage appears twice in the default cascade.
const (
	DirectImage      = "DIRECT_IMAGE_OCR"
	PDFToPNGHighRes  = "PDF_TO_PNG_HIGH_RES"
	PDFToPNGMedRes   = "PDF_TO_PNG_MEDIUM_RES"
	PDFToPNGLowRes   = "PDF_TO_PNG_LOW_RES"
	FilenameAnalysis = "FILENAME_ANALYSIS"
)

// Config is declared once per strategy and never mutated.
type Config struct {
	Name string
	// Below MinCharThreshold a result is discarded as insufficient.
	MinCharThreshold int
	// At or above IdealCharThreshold (with enough confidence) the cascade may stop.
	IdealCharThreshold int
}

var (
	ocrThresholds      = Config{MinCharThreshold: 20, IdealCharThreshold: 100}
	filenameThresholds = Config{MinCharThreshold: 10, IdealCharThreshold: 50}
)

// Source is the document handed to every strategy.
type Source struct {
	Path         string
	OriginalName string // upload name; falls back to Path for filename analysis
	Format       string // constants.PDF | constants.IMAGE | "" (sniffed, extension as fallback)
}

// NameForAnalysis is the name the filename heuristics should parse.
func (s Source) NameForAnalysis() string {
	if s.OriginalName != "" {
		return s.OriginalName
	}
	return s.Path
}

type Strategy interface {
	Config() Config
	Execute(ctx context.Context, src Source) (ocr.ExtractionResult, error)
}

// Sweeper is the part of ocr.ConfigSweep strategies depend on.
type Sweeper interface {
	Run(ctx context.Context, imagePath, label string) (ocr.ExtractionResult, error)
}
