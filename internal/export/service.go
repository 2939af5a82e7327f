package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/internal/repository"
)

const (
	runsSheet       = "Runs"
	strategiesSheet = "Strategies"
	previewLen      = 140
)

// Service produces XLSX bytes for extraction-run exports.
type Service struct {
	runsRepo repository.ExtractionRunRepository
	logger   *slog.Logger
}

func NewService(repo repository.ExtractionRunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runsRepo: repo, logger: logger}
}

// ExportRunsXLSX returns a workbook with one row per run started in [from, to)
// and a per-strategy summary sheet. A zero to means now.
func (s *Service) ExportRunsXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	start := time.Now()
	if to.IsZero() {
		to = time.Now().Add(time.Millisecond)
	}

	runs, err := s.runsRepo.List(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	perf, err := s.runsRepo.StrategyPerformance(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("query strategy performance: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", runsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(strategiesSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(runsSheet)
	f.SetActiveSheet(activeIndex)

	writeRow(f, runsSheet, 1,
		"Started At",
		"Document",
		"Format",
		"Status",
		"Strategy",
		"Characters",
		"Confidence",
		"Fallback Level",
		"Processing (ms)",
		"Text Preview",
		"Error",
		"Source Path",
	)
	for i, r := range runs {
		var strategy, text, errMsg string
		var confidence any = ""
		if r.Strategy != nil {
			strategy = *r.Strategy
		}
		if r.OCRText != nil {
			text = truncate(*r.OCRText, previewLen)
		}
		if r.ErrorMessage != nil {
			errMsg = *r.ErrorMessage
		}
		if r.Confidence != nil {
			confidence = *r.Confidence
		}
		name := r.OriginalName
		if name == "" {
			name = r.SourcePath
		}
		writeRow(f, runsSheet, i+2,
			r.StartedAt.Format(time.RFC3339),
			name,
			r.Format,
			r.Status,
			strategy,
			r.CharCount,
			confidence,
			r.FallbackLevel,
			r.ProcessingMs,
			text,
			errMsg,
			r.SourcePath,
		)
	}

	writeRow(f, strategiesSheet, 1,
		"Strategy", "Runs", "OCR Success Rate", "Avg Characters", "Avg Confidence", "Avg Processing (ms)")
	for i, p := range perf {
		writeRow(f, strategiesSheet, i+2,
			p.Strategy, p.Runs, p.OCRSuccessRate, p.AvgCharCount, p.AvgConfidence, p.AvgProcessingMs)
	}

	// Widen a few columns
	_ = f.SetColWidth(runsSheet, "A", "A", 22) // started
	_ = f.SetColWidth(runsSheet, "B", "B", 40) // document
	_ = f.SetColWidth(runsSheet, "C", "D", 14)
	_ = f.SetColWidth(runsSheet, "E", "E", 34) // strategy
	_ = f.SetColWidth(runsSheet, "F", "I", 14)
	_ = f.SetColWidth(runsSheet, "J", "J", 60) // preview
	_ = f.SetColWidth(runsSheet, "K", "L", 48)
	_ = f.SetColWidth(strategiesSheet, "A", "A", 34)
	_ = f.SetColWidth(strategiesSheet, "B", "F", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(runs),
		"strategies", len(perf),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// truncate cuts s to at most n characters, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
