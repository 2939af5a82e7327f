package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/filename"
	"github.com/joseph-ayodele/docextract/internal/core/ocr"
	"github.com/joseph-ayodele/docextract/internal/core/strategy"
)

// mockStrategy returns a canned result and counts invocations.
type mockStrategy struct {
	cfg      strategy.Config
	res      ocr.ExtractionResult
	err      error
	calls    int
	lastSeen strategy.Source
}

func (m *mockStrategy) Config() strategy.Config { return m.cfg }

func (m *mockStrategy) Execute(_ context.Context, src strategy.Source) (ocr.ExtractionResult, error) {
	m.calls++
	m.lastSeen = src
	if m.err != nil {
		return ocr.ExtractionResult{}, m.err
	}
	return m.res, nil
}

func ocrStrategy(name string, chars int, conf float64) *mockStrategy {
	return &mockStrategy{
		cfg: strategy.Config{Name: name, MinCharThreshold: 20, IdealCharThreshold: 100},
		res: ocr.NewResult(strings.Repeat("x", chars), conf, name),
	}
}

func failing(name string, err error) *mockStrategy {
	return &mockStrategy{
		cfg: strategy.Config{Name: name, MinCharThreshold: 20, IdealCharThreshold: 100},
		err: err,
	}
}

type countingFallback struct {
	inner *filename.Analyzer
	calls int
}

func (c *countingFallback) Extract(path string) ocr.ExtractionResult {
	c.calls++
	return c.inner.Extract(path)
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, content, 0o600))
	return p
}

func pngFile(t *testing.T) string {
	return writeFile(t, "scan.png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
}

func TestProcess_IdealShortCircuits(t *testing.T) {
	first := ocrStrategy("A", 150, 0.9)
	second := ocrStrategy("B", 500, 0.99)
	fb := &countingFallback{inner: filename.NewAnalyzer(nil)}

	p := New([]strategy.Strategy{first, second}, fb, nil)
	res, err := p.Process(context.Background(), pngFile(t))
	require.NoError(t, err)

	assert.Equal(t, "A", res.Strategy)
	assert.Equal(t, 150, res.CharCount)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "later strategies must not run after an ideal result")
	assert.Zero(t, fb.calls)
	assert.Equal(t, 0, res.FallbackLevel)
}

func TestProcess_IdealNeedsConfidenceAbovePointSeven(t *testing.T) {
	first := ocrStrategy("A", 150, 0.7)
	second := ocrStrategy("B", 120, 0.95)

	p := New([]strategy.Strategy{first, second}, filename.NewAnalyzer(nil), nil)
	res, err := p.Process(context.Background(), pngFile(t))
	require.NoError(t, err)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, "B", res.Strategy)
}

func TestProcess_BestOf(t *testing.T) {
	s15 := ocrStrategy("S15", 15, 0.9)
	s40 := ocrStrategy("S40", 40, 0.9)
	s80 := ocrStrategy("S80", 80, 0.3)

	rep, err := New([]strategy.Strategy{s15, s40, s80}, filename.NewAnalyzer(nil), nil).
		ProcessDetailed(context.Background(), pngFile(t), "")
	require.NoError(t, err)

	assert.Equal(t, "S80", rep.Result.Strategy)
	assert.Equal(t, 80, rep.Result.CharCount)
	assert.Equal(t, 2, rep.Result.FallbackLevel)

	require.Len(t, rep.Attempts, 3)
	assert.Equal(t, constants.OutcomeInsufficient, rep.Attempts[0].Outcome)
	assert.Equal(t, constants.OutcomeAccepted, rep.Attempts[1].Outcome)
	assert.Equal(t, constants.OutcomeAccepted, rep.Attempts[2].Outcome)
}

func TestProcess_BestOfKeepsFirstOnTie(t *testing.T) {
	a := ocrStrategy("A", 40, 0.2)
	b := ocrStrategy("B", 40, 0.9)
	res, err := New([]strategy.Strategy{a, b}, filename.NewAnalyzer(nil), nil).Process(context.Background(), pngFile(t))
	require.NoError(t, err)
	assert.Equal(t, "A", res.Strategy)
}

func TestProcess_GuaranteedFallback(t *testing.T) {
	an := filename.NewAnalyzer(nil)
	cascade := []strategy.Strategy{
		failing(strategy.DirectImage, common.ErrAllConfigurationsFailed),
		failing(strategy.PDFToPNGHighRes, common.ErrRasterization),
		failing(strategy.PDFToPNGMedRes, common.ErrRasterization),
		failing(strategy.PDFToPNGLowRes, errors.New("boom")),
		failing(strategy.DirectImage, common.ErrRecognitionEngine),
		strategy.NewFilename(an),
	}
	path := writeFile(t, "22.07.2025_PG_Manutenção_SRJ1_R$1.450,00.pdf", []byte("%PDF-1.4\n"))

	rep, err := New(cascade, an, nil).ProcessDetailed(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, strategy.FilenameAnalysis, rep.Result.Strategy)
	assert.Equal(t, constants.PDF, rep.Format)
	assert.Equal(t, 5, rep.Result.FallbackLevel)
	for _, a := range rep.Attempts[:5] {
		assert.Equal(t, constants.OutcomeFailed, a.Outcome)
		assert.Error(t, a.Err)
	}
}

func TestProcess_DirectFallbackWhenCascadeYieldsNothing(t *testing.T) {
	fb := &countingFallback{inner: filename.NewAnalyzer(nil)}
	cascade := []strategy.Strategy{
		failing("A", common.ErrRasterization),
		ocrStrategy("B", 5, 0.9),
	}
	path := pngFile(t)

	res, err := New(cascade, fb, nil).ProcessNamed(context.Background(), path, "AG_Aluguel_galpao.png")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.calls)
	assert.Equal(t, strategy.FilenameAnalysis, res.Strategy)
	assert.Contains(t, res.Text, "AG_Aluguel_galpao")
	assert.Equal(t, 2, res.FallbackLevel)

	res, err = New(nil, fb, nil).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, strategy.FilenameAnalysis, res.Strategy)
}

func TestProcess_UnreadableSource(t *testing.T) {
	s := ocrStrategy("A", 500, 1)
	p := New([]strategy.Strategy{s}, filename.NewAnalyzer(nil), nil)

	_, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSourceFileUnreadable)
	assert.Zero(t, s.calls)

	_, err = p.Process(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, common.ErrSourceFileUnreadable)
}

func TestProcess_MagicNumberBeatsExtension(t *testing.T) {
	s := ocrStrategy("A", 500, 1)
	path := writeFile(t, "really-a-pdf.png", []byte("%PDF-1.7\n..."))

	_, err := New([]strategy.Strategy{s}, filename.NewAnalyzer(nil), nil).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.PDF, s.lastSeen.Format)
}

func TestProcess_NotApplicableIsSkipped(t *testing.T) {
	s := failing("A", common.ErrNotApplicable)
	rep, err := New([]strategy.Strategy{s}, filename.NewAnalyzer(nil), nil).
		ProcessDetailed(context.Background(), pngFile(t), "")
	require.NoError(t, err)
	require.Len(t, rep.Attempts, 1)
	assert.Equal(t, constants.OutcomeSkipped, rep.Attempts[0].Outcome)
}

func TestProcess_Totality(t *testing.T) {
	an := filename.NewAnalyzer(nil)
	cases := map[string][]strategy.Strategy{
		"ideal":        {ocrStrategy("A", 300, 0.95)},
		"accepted":     {ocrStrategy("A", 30, 0.1)},
		"insufficient": {ocrStrategy("A", 3, 0.1)},
		"failed":       {failing("A", errors.New("x"))},
		"empty":        nil,
	}
	for name, cascade := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := New(cascade, an, nil).Process(context.Background(), pngFile(t))
			require.NoError(t, err)
			assert.NotEmpty(t, res.Text)
			assert.Equal(t, len([]rune(res.Text)), res.CharCount)
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
			assert.Greater(t, res.ProcessingTime.Nanoseconds(), int64(0))
			assert.NotNil(t, res.Metadata)
		})
	}
}

func TestProcess_RecountsCharCount(t *testing.T) {
	s := ocrStrategy("A", 150, 0.95)
	s.res.CharCount = 3 // stale count must not decide acceptance
	res, err := New([]strategy.Strategy{s}, filename.NewAnalyzer(nil), nil).Process(context.Background(), pngFile(t))
	require.NoError(t, err)
	assert.Equal(t, "A", res.Strategy)
	assert.Equal(t, 150, res.CharCount)
}
