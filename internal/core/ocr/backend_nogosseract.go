//go:build !gosseract

package ocr

import (
	"errors"
	"log/slog"
)

func newGosseract(string, *slog.Logger) (TextRecognizer, error) {
	return nil, errors.New("gosseract backend not compiled in: rebuild with -tags gosseract")
}
