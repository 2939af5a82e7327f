package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// Rasterizer renders the first page of a PDF to an image file.
// The caller owns the returned file and must delete it.
type Rasterizer interface {
	Render(ctx context.Context, sourcePath string, preset ResolutionPreset) (string, error)
}

// PDFRasterizer validates the PDF with pdfcpu and renders with pdftoppm.
type PDFRasterizer struct {
	Binary string
	runner Runner
	logger *slog.Logger
}

func NewPDFRasterizer(binary string, runner Runner, logger *slog.Logger) *PDFRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if binary == "" {
		binary = "pdftoppm"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PDFRasterizer{Binary: binary, runner: runner, logger: logger}
}

// Render writes <dir of source>/page_<preset>_<uuid>.png.
func (r *PDFRasterizer) Render(ctx context.Context, sourcePath string, preset ResolutionPreset) (string, error) {
	pages, err := api.PageCountFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: not a valid pdf: %v", common.ErrRasterization, err)
	}
	if pages == 0 {
		return "", fmt.Errorf("%w: pdf has no pages", common.ErrRasterization)
	}

	prefix := filepath.Join(filepath.Dir(sourcePath), fmt.Sprintf("page_%s_%s", preset.Name, uuid.NewString()))
	out := prefix + ".png"

	// pdftoppm -f 1 -l 1 -r <dpi> -scale-to-x W -scale-to-y H -png -singlefile <in.pdf> <prefix>
	_, errb, err := r.runner.Run(ctx, r.Binary, r.logger,
		"-f", "1", "-l", "1",
		"-r", strconv.Itoa(preset.DPI),
		"-scale-to-x", strconv.Itoa(preset.Width),
		"-scale-to-y", strconv.Itoa(preset.Height),
		"-png", "-singlefile",
		sourcePath, prefix,
	)
	if err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("%w: pdftoppm at %d dpi: %v (%s)", common.ErrRasterization, preset.DPI, err, truncate(string(errb), 512))
	}
	if st, statErr := os.Stat(out); statErr != nil || st.Size() == 0 {
		_ = os.Remove(out)
		return "", fmt.Errorf("%w: pdftoppm produced no image at %d dpi", common.ErrRasterization, preset.DPI)
	}

	r.logger.Debug("rasterized first page", "source", sourcePath, "dpi", preset.DPI, "image", out, "pages", pages)
	return out, nil
}
