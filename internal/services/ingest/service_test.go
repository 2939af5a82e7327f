package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/docextract/internal/core/async"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o600))
	return p
}

func TestSubmitFile(t *testing.T) {
	dir := t.TempDir()
	q := &recordingQueue{}
	svc := NewService(q, nil)

	p := writeFile(t, dir, "recibo.pdf")
	require.NoError(t, svc.SubmitFile(context.Background(), FileRequest{Path: p}))
	require.Len(t, q.jobs, 1)
	assert.Equal(t, p, q.jobs[0].Path)
	assert.Equal(t, "recibo.pdf", q.jobs[0].OriginalName)

	require.NoError(t, svc.SubmitFile(context.Background(), FileRequest{Path: p, OriginalName: "upload.pdf"}))
	assert.Equal(t, "upload.pdf", q.jobs[1].OriginalName)
}

func TestSubmitFile_InvalidArgument(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(&recordingQueue{}, nil)

	tests := []struct {
		name string
		req  FileRequest
	}{
		{"empty path", FileRequest{}},
		{"unsupported extension", FileRequest{Path: writeFile(t, dir, "notes.txt")}},
		{"missing file", FileRequest{Path: filepath.Join(dir, "gone.pdf")}},
		{"directory", FileRequest{Path: func() string {
			d := filepath.Join(dir, "folder.pdf")
			require.NoError(t, os.Mkdir(d, 0o755))
			return d
		}()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SubmitFile(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestSubmitFile_QueueUnavailable(t *testing.T) {
	p := writeFile(t, t.TempDir(), "a.pdf")
	svc := NewService(&recordingQueue{err: async.ErrQueueClosed}, nil)

	err := svc.SubmitFile(context.Background(), FileRequest{Path: p})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestSubmitDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf")
	writeFile(t, dir, "b.jpg")
	writeFile(t, dir, "c.txt")

	q := &recordingQueue{}
	res, err := NewService(q, nil).SubmitDirectory(context.Background(), DirectoryRequest{RootPath: dir})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Queued)
	assert.Empty(t, res.Rejected)
	assert.Len(t, q.jobs, 2)

	_, err = NewService(q, nil).SubmitDirectory(context.Background(), DirectoryRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
