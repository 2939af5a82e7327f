package ocr

import (
	"fmt"
	"log/slog"
)

// NewRecognizer returns the TextRecognizer for a backend name ("cli" or "gosseract").
func NewRecognizer(backend, tesseractBin, tessdataDir string, logger *slog.Logger) (TextRecognizer, error) {
	switch backend {
	case "", "cli":
		return NewTesseractCLI(tesseractBin, tessdataDir, ExecRunner{}, logger), nil
	case "gosseract":
		return newGosseract(tessdataDir, logger)
	default:
		return nil, fmt.Errorf("unknown ocr backend %q", backend)
	}
}
