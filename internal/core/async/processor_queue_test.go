package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/core"
)

type fakeProcessor struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]bool
	delay time.Duration
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path, _ string) (core.Outcome, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return core.Outcome{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.seen = append(f.seen, path)
	f.mu.Unlock()
	if f.fail[path] {
		return core.Outcome{Status: constants.RunStatusFailed}, errors.New("boom")
	}
	return core.Outcome{Status: constants.RunStatusOK}, nil
}

func TestProcessorQueue_ProcessesEveryJob(t *testing.T) {
	proc := &fakeProcessor{fail: map[string]bool{"/in/3.pdf": true}}
	var (
		mu     sync.Mutex
		failed int
		done   int
	)
	q := NewProcessorQueue(proc, nil,
		WithWorkers(3),
		WithQueueSize(2),
		WithOnDone(func(_ Job, _ core.Outcome, err error) {
			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				failed++
			}
		}),
	)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(ctx, Job{Path: fmt.Sprintf("/in/%d.pdf", i)}))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	proc.mu.Lock()
	assert.Len(t, proc.seen, 10)
	proc.mu.Unlock()

	mu.Lock()
	assert.Equal(t, 10, done)
	assert.Equal(t, 1, failed)
	mu.Unlock()
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Path: "/in/late.pdf"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	// a second shutdown is a no-op
	q.Shutdown(context.Background())
}

func TestProcessorQueue_EnqueueHonorsContextWhenFull(t *testing.T) {
	block := make(chan struct{})
	proc := &blockingProcessor{release: block, started: make(chan struct{})}
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(block)
		q.Shutdown(context.Background())
	}()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: "a"}))
	<-proc.started
	require.NoError(t, q.Enqueue(ctx, Job{Path: "b"}))

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(tctx, Job{Path: "c"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingProcessor struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingProcessor) ProcessFile(context.Context, string, string) (core.Outcome, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return core.Outcome{}, nil
}
