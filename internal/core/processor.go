package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/pipeline"
	"github.com/joseph-ayodele/docextract/internal/core/strategy"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

// DocumentPipeline is satisfied by *pipeline.Pipeline.
type DocumentPipeline interface {
	ProcessDetailed(ctx context.Context, path, originalName string) (pipeline.Report, error)
}

// Outcome is what Process hands back. RunID is uuid.Nil when runs are not persisted.
type Outcome struct {
	RunID      uuid.UUID
	DocumentID string
	Status     constants.RunStatus
	Report     pipeline.Report
}

// Processor runs the pipeline over one document and records the run.
type Processor struct {
	logger   *slog.Logger
	pipeline DocumentPipeline
	runsRepo repository.ExtractionRunRepository
}

// NewProcessor accepts a nil runsRepo; runs are then not persisted.
func NewProcessor(logger *slog.Logger, p DocumentPipeline, runsRepo repository.ExtractionRunRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, pipeline: p, runsRepo: runsRepo}
}

// ProcessFile extracts text from path and records the run.
// Only an unreadable source yields an error from the pipeline itself; a
// repository failure is returned too, alongside the extraction outcome.
func (p *Processor) ProcessFile(ctx context.Context, path, originalName string) (Outcome, error) {
	var out Outcome

	docID, err := HashFile(path)
	if err != nil {
		p.logger.Warn("could not hash source", "path", path, "error", err)
	}
	out.DocumentID = docID
	ctx = common.WithDocumentID(ctx, docID)

	if p.runsRepo != nil {
		run, err := p.runsRepo.Start(ctx, docID, path, originalName, constants.MapExtToFormat(filepath.Ext(path)))
		if err != nil {
			return out, err
		}
		out.RunID = run.ID
	}

	rep, err := p.pipeline.ProcessDetailed(ctx, path, originalName)
	out.Report = rep
	if err != nil {
		out.Status = constants.RunStatusFailed
		p.logger.Error("processor.extract.failed", "path", path, "run_id", out.RunID, "err", err)
		if p.runsRepo != nil {
			if ferr := p.runsRepo.FinishFailure(ctx, out.RunID, err.Error(), toAttempts(out.RunID, rep.Attempts)); ferr != nil {
				return out, errors.Join(err, ferr)
			}
		}
		return out, err
	}

	res := rep.Result
	out.Status = constants.RunStatusOK
	if res.Strategy == strategy.FilenameAnalysis {
		out.Status = constants.RunStatusFallback
	}
	p.logger.Info("processed document",
		"path", path,
		"run_id", out.RunID,
		"document_id", docID,
		"format", rep.Format,
		"strategy", res.Strategy,
		"chars", res.CharCount,
		"confidence", res.Confidence,
		"fallback_level", res.FallbackLevel,
		"duration_ms", res.ProcessingTimeMs(),
	)

	if p.runsRepo == nil {
		return out, nil
	}
	err = p.runsRepo.FinishSuccess(ctx, out.RunID, repository.RunOutcome{
		Status:        out.Status,
		Strategy:      res.Strategy,
		CharCount:     res.CharCount,
		Confidence:    res.Confidence,
		FallbackLevel: res.FallbackLevel,
		ProcessingMs:  res.ProcessingTimeMs(),
		OCRText:       res.Text,
		Attempts:      toAttempts(out.RunID, rep.Attempts),
	})
	return out, err
}

// HashFile returns the hex sha256 of the file content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func toAttempts(runID uuid.UUID, in []pipeline.Attempt) []entity.ExtractionAttempt {
	out := make([]entity.ExtractionAttempt, 0, len(in))
	for _, a := range in {
		ea := entity.ExtractionAttempt{
			RunID:      runID,
			Seq:        a.Seq,
			Strategy:   a.Strategy,
			Outcome:    string(a.Outcome),
			CharCount:  a.CharCount,
			Confidence: a.Confidence,
			DurationMs: a.Duration.Milliseconds(),
			FromCache:  a.FromCache,
		}
		if a.Err != nil {
			msg := a.Err.Error()
			ea.ErrorMessage = &msg
		}
		out = append(out, ea)
	}
	return out
}
