package strategy

import (
	"context"

	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// FilenameExtractor is satisfied by *filename.Analyzer.
type FilenameExtractor interface {
	Extract(path string) ocr.ExtractionResult
}

// Filename parses the document name. It has no external dependency and never fails.
type Filename struct {
	extractor FilenameExtractor
}

func NewFilename(e FilenameExtractor) *Filename {
	return &Filename{extractor: e}
}

func (s *Filename) Config() Config {
	c := filenameThresholds
	c.Name = FilenameAnalysis
	return c
}

func (s *Filename) Execute(_ context.Context, src Source) (ocr.ExtractionResult, error) {
	return s.extractor.Extract(src.NameForAnalysis()), nil
}
