package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// Sweep short-circuit: stop paying for more passes once a result is this good.
const (
	SweepEarlyExitChars      = 200
	SweepEarlyExitConfidence = 0.8
)

// ConfigSweep runs a recognizer under a fixed, ordered list of configurations
// against one image and keeps the result with the most characters.
type ConfigSweep struct {
	recognizer TextRecognizer
	configs    []RecognizerConfig
	logger     *slog.Logger
}

func NewConfigSweep(rec TextRecognizer, configs []RecognizerConfig, logger *slog.Logger) *ConfigSweep {
	if logger == nil {
		logger = slog.Default()
	}
	if len(configs) == 0 {
		configs = DefaultConfigs
	}
	return &ConfigSweep{recognizer: rec, configs: configs, logger: logger}
}

// Run returns the best configuration's result, named "<label>_<CONFIG>".
// A failing configuration is skipped; ErrAllConfigurationsFailed is returned only
// when none succeeded.
func (s *ConfigSweep) Run(ctx context.Context, imagePath, label string) (ExtractionResult, error) {
	var (
		best    ExtractionResult
		haveAny bool
	)
	for _, cfg := range s.configs {
		rec, err := s.recognizer.Recognize(ctx, imagePath, cfg)
		if err != nil {
			s.logger.Warn("recognizer config failed", "strategy", label, "config", cfg.Name, "error", err)
			continue
		}

		res := NewResult(Normalize(rec.Text), rec.ConfidenceRaw/100, label+"_"+cfg.Name)
		res.Metadata["recognizer_config"] = cfg.Name
		res.Metadata["languages"] = cfg.Languages
		s.logger.Debug("recognizer config done",
			"strategy", label,
			"config", cfg.Name,
			"chars", res.CharCount,
			"confidence", res.Confidence,
		)

		if !haveAny || res.CharCount > best.CharCount {
			best = res
			haveAny = true
		}
		if res.CharCount > SweepEarlyExitChars && res.Confidence > SweepEarlyExitConfidence {
			break
		}
	}
	if !haveAny {
		return ExtractionResult{}, fmt.Errorf("%w: %s (%d configs)", common.ErrAllConfigurationsFailed, label, len(s.configs))
	}
	return best, nil
}
