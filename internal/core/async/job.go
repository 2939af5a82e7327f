package async

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/docextract/internal/core"
)

// Job is one document waiting for extraction.
type Job struct {
	Path         string
	OriginalName string
}

// Queue is the behavior producers depend on.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// FileProcessor is satisfied by *core.Processor.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path, originalName string) (core.Outcome, error)
}

var ErrQueueClosed = errors.New("queue is shutting down")
