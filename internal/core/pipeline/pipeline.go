// Package pipeline runs the strategy cascade over one document and returns the
// first ideal result, the best acceptable one, or the filename report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/ocr"
	"github.com/joseph-ayodele/docextract/internal/core/strategy"
)

// IdealConfidence is the confidence a result must exceed, together with the
// strategy's ideal char threshold, to stop the cascade.
const IdealConfidence = 0.7

const sniffLen = 8

// Attempt records what one strategy did during a run.
type Attempt struct {
	Seq        int
	Strategy   string
	Outcome    constants.StrategyOutcome
	CharCount  int
	Confidence float64
	Duration   time.Duration
	FromCache  bool
	Err        error
}

// Report is the returned result plus the trail of attempts that led to it.
type Report struct {
	Result   ocr.ExtractionResult
	Format   string
	Attempts []Attempt
}

type Pipeline struct {
	strategies []strategy.Strategy
	fallback   strategy.FilenameExtractor
	logger     *slog.Logger
}

// New builds a pipeline. The strategy list is read-only after construction,
// so one Pipeline may serve many documents concurrently.
func New(strategies []strategy.Strategy, fallback strategy.FilenameExtractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{strategies: strategies, fallback: fallback, logger: logger}
}

// Process extracts text from path, using its own name for filename analysis.
func (p *Pipeline) Process(ctx context.Context, path string) (ocr.ExtractionResult, error) {
	return p.ProcessNamed(ctx, path, "")
}

// ProcessNamed is Process with the document's original (upload) name.
func (p *Pipeline) ProcessNamed(ctx context.Context, path, originalName string) (ocr.ExtractionResult, error) {
	rep, err := p.ProcessDetailed(ctx, path, originalName)
	if err != nil {
		return ocr.ExtractionResult{}, err
	}
	return rep.Result, nil
}

// ProcessDetailed returns ErrSourceFileUnreadable when the file cannot be
// opened; every other failure is absorbed by the cascade.
func (p *Pipeline) ProcessDetailed(ctx context.Context, path, originalName string) (Report, error) {
	start := time.Now()
	logger := p.logger
	if id := common.DocumentIDFromContext(ctx); id != "" {
		logger = logger.With("document_id", id)
	}

	format, err := sniff(path)
	if err != nil {
		logger.Error("source file unreadable", "path", path, "error", err)
		return Report{}, fmt.Errorf("%w: %s: %v", common.ErrSourceFileUnreadable, path, err)
	}
	src := strategy.Source{Path: path, OriginalName: originalName, Format: format}
	rep := Report{Format: format}

	var (
		best    ocr.ExtractionResult
		hasBest bool
	)
	for i, s := range p.strategies {
		cfg := s.Config()
		t0 := time.Now()
		res, err := s.Execute(ctx, src)
		att := Attempt{Seq: i + 1, Strategy: cfg.Name, Duration: time.Since(t0)}

		switch {
		case errors.Is(err, common.ErrNotApplicable):
			att.Outcome = constants.OutcomeSkipped
			att.Err = err
			logger.Debug("strategy not applicable", "strategy", cfg.Name, "format", format)
		case err != nil:
			att.Outcome = constants.OutcomeFailed
			att.Err = err
			logger.Warn("strategy failed", "strategy", cfg.Name, "path", path, "error", err)
		default:
			res.Recount()
			res.FallbackLevel = i
			att.CharCount = res.CharCount
			att.Confidence = res.Confidence
			att.FromCache = res.Metadata["from_cache"] == "true"

			switch {
			case res.CharCount < cfg.MinCharThreshold:
				att.Outcome = constants.OutcomeInsufficient
				logger.Info("strategy result insufficient",
					"strategy", cfg.Name, "chars", res.CharCount, "min", cfg.MinCharThreshold)
			case res.CharCount >= cfg.IdealCharThreshold && res.Confidence > IdealConfidence:
				att.Outcome = constants.OutcomeIdeal
				rep.Attempts = append(rep.Attempts, att)
				logger.Info("strategy result ideal",
					"strategy", res.Strategy, "chars", res.CharCount, "confidence", res.Confidence)
				rep.Result = p.stamp(res, start)
				return rep, nil
			default:
				att.Outcome = constants.OutcomeAccepted
				if !hasBest || res.CharCount > best.CharCount {
					best, hasBest = res, true
				}
				logger.Info("strategy result accepted",
					"strategy", res.Strategy, "chars", res.CharCount, "confidence", res.Confidence)
			}
		}
		rep.Attempts = append(rep.Attempts, att)
	}

	if hasBest {
		rep.Result = p.stamp(best, start)
		return rep, nil
	}

	logger.Warn("no strategy produced a usable result; running filename analysis", "path", path)
	name := originalName
	if name == "" {
		name = path
	}
	res := p.fallback.Extract(name)
	res.Recount()
	res.FallbackLevel = len(p.strategies)
	rep.Result = p.stamp(res, start)
	return rep, nil
}

func (p *Pipeline) stamp(res ocr.ExtractionResult, start time.Time) ocr.ExtractionResult {
	res.ProcessingTime = time.Since(start)
	if res.Metadata == nil {
		res.Metadata = map[string]string{}
	}
	return res
}

// sniff opens the file and decides PDF vs IMAGE, magic bytes first.
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", err
	}
	if st.IsDir() {
		return "", errors.New("is a directory")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return constants.DetectFormat(filepath.Ext(path), head[:n]), nil
}
