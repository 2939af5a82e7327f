//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// Gosseract runs recognition in-process through libtesseract.
// gosseract does not expose the engine mode, so RecognizerConfig.EngineMode is ignored.
type Gosseract struct {
	tessdataDir string
	logger      *slog.Logger
}

func newGosseract(tessdataDir string, logger *slog.Logger) (TextRecognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gosseract{tessdataDir: tessdataDir, logger: logger}, nil
}

func (g *Gosseract) Recognize(ctx context.Context, imagePath string, cfg RecognizerConfig) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}
	client := gosseract.NewClient()
	defer func() {
		if err := client.Close(); err != nil {
			g.logger.Warn("gosseract close failed", "config", cfg.Name, "error", err)
		}
	}()

	if g.tessdataDir != "" {
		if err := client.SetTessdataPrefix(g.tessdataDir); err != nil {
			return Recognition{}, fmt.Errorf("%w: set tessdata: %v", common.ErrRecognitionEngine, err)
		}
	}
	if err := client.SetLanguage(strings.Split(cfg.Languages, "+")...); err != nil {
		return Recognition{}, fmt.Errorf("%w: set language %q: %v", common.ErrRecognitionEngine, cfg.Languages, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		return Recognition{}, fmt.Errorf("%w: set psm %d: %v", common.ErrRecognitionEngine, cfg.PageSegMode, err)
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			return Recognition{}, fmt.Errorf("%w: set whitelist: %v", common.ErrRecognitionEngine, err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return Recognition{}, fmt.Errorf("%w: set image: %v", common.ErrRecognitionEngine, err)
	}

	text, err := client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %s: %v", common.ErrRecognitionEngine, cfg.Name, err)
	}

	var sum float64
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		g.logger.Warn("gosseract word confidences unavailable", "config", cfg.Name, "error", err)
	}
	for _, b := range boxes {
		sum += b.Confidence
	}
	var conf float64
	if len(boxes) > 0 {
		conf = sum / float64(len(boxes))
	}
	return Recognition{Text: text, ConfidenceRaw: conf}, nil
}
