package export

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

func TestExportRunsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{}, slog.Default())
	require.NoError(t, err)
	defer repository.Close(db, slog.Default())
	require.NoError(t, repository.Migrate(ctx, db, slog.Default()))
	runs := repository.NewExtractionRunRepository(db, nil)

	ok, err := runs.Start(ctx, "doc-1", "/in/nota.pdf", "nota.pdf", constants.PDF)
	require.NoError(t, err)
	require.NoError(t, runs.FinishSuccess(ctx, ok.ID, repository.RunOutcome{
		Status:     constants.RunStatusOK,
		Strategy:   "PDF_TO_PNG_HIGH_RES",
		CharCount:  180,
		Confidence: 0.85,
		OCRText:    strings.Repeat("texto ", 40),
	}))
	bad, err := runs.Start(ctx, "doc-2", "/in/broken.pdf", "", constants.PDF)
	require.NoError(t, err)
	require.NoError(t, runs.FinishFailure(ctx, bad.ID, "source file unreadable", nil))

	out, err := NewService(runs, nil).ExportRunsXLSX(ctx, time.Now().Add(-time.Minute), time.Time{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(runsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Started At", rows[0][0])
	assert.Len(t, rows[0], 12)

	byStatus := map[string][]string{}
	for _, r := range rows[1:] {
		byStatus[r[3]] = r
	}
	require.Contains(t, byStatus, string(constants.RunStatusOK))
	require.Contains(t, byStatus, string(constants.RunStatusFailed))
	assert.Equal(t, "nota.pdf", byStatus[string(constants.RunStatusOK)][1])
	assert.Equal(t, "/in/broken.pdf", byStatus[string(constants.RunStatusFailed)][1])
	assert.Equal(t, "source file unreadable", byStatus[string(constants.RunStatusFailed)][10])

	perf, err := f.GetRows(strategiesSheet)
	require.NoError(t, err)
	require.Len(t, perf, 2)
	assert.Equal(t, "PDF_TO_PNG_HIGH_RES", perf[1][0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "çã…", truncate("çãõé", 3))
	assert.Equal(t, "x", truncate("xyz", 1))
}
