package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// Recognition is the raw output of a single engine pass.
type Recognition struct {
	Text          string
	ConfidenceRaw float64 // engine scale, 0..100
}

// TextRecognizer runs one OCR pass over an image under one configuration.
// Implementations must release engine resources before returning.
type TextRecognizer interface {
	Recognize(ctx context.Context, imagePath string, cfg RecognizerConfig) (Recognition, error)
}

// TesseractCLI drives the tesseract binary. Each call spawns one process,
// which is the engine worker; it is reaped on every exit path by the Runner.
type TesseractCLI struct {
	Binary      string
	TessdataDir string
	runner      Runner
	logger      *slog.Logger
}

func NewTesseractCLI(binary, tessdataDir string, runner Runner, logger *slog.Logger) *TesseractCLI {
	if logger == nil {
		logger = slog.Default()
	}
	if binary == "" {
		binary = "tesseract"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractCLI{Binary: binary, TessdataDir: tessdataDir, runner: runner, logger: logger}
}

func (t *TesseractCLI) Recognize(ctx context.Context, imagePath string, cfg RecognizerConfig) (Recognition, error) {
	// tesseract <img> stdout -l <lang> --psm N --oem M [-c whitelist] tsv
	args := []string{imagePath, "stdout", "-l", cfg.Languages}
	if cfg.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(cfg.PageSegMode))
	}
	if cfg.EngineMode > 0 {
		args = append(args, "--oem", strconv.Itoa(cfg.EngineMode))
	}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	if cfg.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+cfg.Whitelist)
	}
	args = append(args, "tsv")

	out, _, err := t.runner.Run(ctx, t.Binary, t.logger, args...)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: tesseract %s: %v", common.ErrRecognitionEngine, cfg.Name, err)
	}
	text, conf := parseTSV(string(out))
	return Recognition{Text: reBoxNoise.ReplaceAllString(text, ""), ConfidenceRaw: conf}, nil
}

// parseTSV rebuilds the text from word rows and returns the mean word confidence (0..100).
// Columns: level page block par line word left top width height conf text.
func parseTSV(tsv string) (string, float64) {
	var (
		b        strings.Builder
		lastLine string
		sum, n   float64
	)
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		if c, err := strconv.ParseFloat(cols[10], 64); err == nil && c >= 0 {
			sum += c
			n++
		}
		lineKey := strings.Join(cols[1:5], ".")
		switch {
		case b.Len() == 0:
		case lineKey != lastLine:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(word)
		lastLine = lineKey
	}
	if n == 0 {
		return b.String(), 0
	}
	return b.String(), sum / n
}
