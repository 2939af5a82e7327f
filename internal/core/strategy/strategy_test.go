package strategy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/filename"
	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// fileRasterizer writes a real temp image next to the source.
type fileRasterizer struct {
	created []string
	err     error
}

func (f *fileRasterizer) Render(_ context.Context, src string, p ocr.ResolutionPreset) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	out := filepath.Join(filepath.Dir(src), "page_"+p.Name+".png")
	if err := os.WriteFile(out, []byte("png"), 0o600); err != nil {
		return "", err
	}
	f.created = append(f.created, out)
	return out, nil
}

type fakeSweep struct {
	res    ocr.ExtractionResult
	err    error
	images []string
}

func (f *fakeSweep) Run(_ context.Context, imagePath, label string) (ocr.ExtractionResult, error) {
	f.images = append(f.images, imagePath)
	if f.err != nil {
		return ocr.ExtractionResult{}, f.err
	}
	r := f.res
	r.Strategy = label + "_X"
	r.Metadata = map[string]string{}
	return r, nil
}

func pdfSource(t *testing.T) Source {
	t.Helper()
	p := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o600))
	return Source{Path: p, Format: constants.PDF}
}

func TestPDFRaster_RemovesImage(t *testing.T) {
	tests := []struct {
		name    string
		sweep   *fakeSweep
		wantErr error
	}{
		{"success", &fakeSweep{res: ocr.NewResult("texto", 0.9, "")}, nil},
		{"sweep failure", &fakeSweep{err: common.ErrAllConfigurationsFailed}, common.ErrAllConfigurationsFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := pdfSource(t)
			r := &fileRasterizer{}
			s := NewPDFRaster(PDFToPNGHighRes, ocr.PresetHigh, r, tt.sweep, nil)

			res, err := s.Execute(context.Background(), src)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "300", res.Metadata["resolution"])
				assert.Equal(t, "PDF_TO_PNG_HIGH_RES_X", res.Strategy)
			}

			require.Len(t, r.created, 1)
			assert.Equal(t, r.created, tt.sweep.images)
			assert.NoFileExists(t, r.created[0])
		})
	}
}

func TestPDFRaster_RasterizationError(t *testing.T) {
	sweep := &fakeSweep{}
	s := NewPDFRaster(PDFToPNGLowRes, ocr.PresetLow, &fileRasterizer{err: common.ErrRasterization}, sweep, nil)
	_, err := s.Execute(context.Background(), pdfSource(t))
	assert.ErrorIs(t, err, common.ErrRasterization)
	assert.Empty(t, sweep.images)
}

func TestTypeGuards(t *testing.T) {
	sweep := &fakeSweep{res: ocr.NewResult("x", 1, "")}

	_, err := NewImageOCR(sweep).Execute(context.Background(), Source{Path: "a.pdf", Format: constants.PDF})
	assert.ErrorIs(t, err, common.ErrNotApplicable)

	_, err = NewPDFRaster(PDFToPNGMedRes, ocr.PresetMedium, &fileRasterizer{}, sweep, nil).
		Execute(context.Background(), Source{Path: "a.png", Format: constants.IMAGE})
	assert.ErrorIs(t, err, common.ErrNotApplicable)

	assert.Empty(t, sweep.images)

	res, err := NewImageOCR(sweep).Execute(context.Background(), Source{Path: "a.png", Format: constants.IMAGE})
	require.NoError(t, err)
	assert.Equal(t, "DIRECT_IMAGE_OCR_X", res.Strategy)
	assert.Equal(t, []string{"a.png"}, sweep.images)
}

func TestFilename_UsesOriginalName(t *testing.T) {
	s := NewFilename(filename.NewAnalyzer(nil))
	res, err := s.Execute(context.Background(), Source{Path: "/tmp/upload-123", OriginalName: "AG_Tecnologia_notebook.pdf"})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Status: AGENDADO")
	assert.Contains(t, res.Text, "DOCUMENTO: AG_Tecnologia_notebook")
}

func TestDefaultCascade(t *testing.T) {
	cascade := DefaultCascade(&fileRasterizer{}, &fakeSweep{}, filename.NewAnalyzer(nil), nil)

	var names []string
	for _, s := range cascade {
		names = append(names, s.Config().Name)
	}
	assert.Equal(t, []string{
		DirectImage, PDFToPNGHighRes, PDFToPNGMedRes, PDFToPNGLowRes, DirectImage, FilenameAnalysis,
	}, names)

	for _, s := range cascade[:5] {
		assert.Equal(t, 20, s.Config().MinCharThreshold)
		assert.Equal(t, 100, s.Config().IdealCharThreshold)
	}
	assert.Equal(t, 10, cascade[5].Config().MinCharThreshold)
	assert.Equal(t, 50, cascade[5].Config().IdealCharThreshold)
}

type memCache struct {
	data map[string]ocr.ExtractionResult
	puts int
}

func (m *memCache) Get(path, strategy string) (ocr.ExtractionResult, bool) {
	r, ok := m.data[path+"|"+strategy]
	return r, ok
}

func (m *memCache) Put(path, strategy string, res ocr.ExtractionResult) error {
	m.puts++
	m.data[path+"|"+strategy] = res
	return nil
}

type countingStrategy struct {
	name  string
	calls int
	res   ocr.ExtractionResult
	err   error
}

func (c *countingStrategy) Config() Config { return Config{Name: c.name, MinCharThreshold: 20, IdealCharThreshold: 100} }

func (c *countingStrategy) Execute(context.Context, Source) (ocr.ExtractionResult, error) {
	c.calls++
	return c.res, c.err
}

func TestWithCache(t *testing.T) {
	inner := &countingStrategy{name: DirectImage, res: ocr.NewResult("cached text", 0.9, "DIRECT_IMAGE_OCR_BLOCO_UNICO")}
	fn := &countingStrategy{name: FilenameAnalysis}
	c := &memCache{data: map[string]ocr.ExtractionResult{}}

	wrapped := WithCache([]Strategy{inner, fn}, c, nil)
	assert.Same(t, fn, wrapped[1], "filename analysis is never cached")

	src := Source{Path: "x.png", Format: constants.IMAGE}
	first, err := wrapped[0].Execute(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, first.Metadata["from_cache"])

	// a corrupted count in the store must not survive a hit
	stored := c.data["x.png|"+DirectImage]
	stored.CharCount = 9999
	stored.Metadata = nil
	c.data["x.png|"+DirectImage] = stored

	second, err := wrapped[0].Execute(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, len("cached text"), second.CharCount)
	assert.Equal(t, "true", second.Metadata["from_cache"])
}

func TestWithCache_ErrorsNotCached(t *testing.T) {
	inner := &countingStrategy{name: DirectImage, err: errors.New("engine down")}
	c := &memCache{data: map[string]ocr.ExtractionResult{}}
	wrapped := WithCache([]Strategy{inner}, c, nil)

	_, err := wrapped[0].Execute(context.Background(), Source{Path: "x.png"})
	assert.Error(t, err)
	assert.Zero(t, c.puts)
	assert.Len(t, WithCache([]Strategy{inner}, nil, nil), 1)
}
