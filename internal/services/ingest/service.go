package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/async"
	"github.com/joseph-ayodele/docextract/internal/ingest"
)

const maxNameLength = 255

// Service validates submissions and hands them to the extraction queue.
type Service struct {
	queue  async.Queue
	logger *slog.Logger
}

// NewService creates a new ingest service.
func NewService(q async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{queue: q, logger: logger}
}

// FileRequest represents a single-document submission.
type FileRequest struct {
	Path         string
	OriginalName string // optional; defaults to the base name of Path
}

// DirectoryRequest represents a directory submission.
type DirectoryRequest struct {
	RootPath   string
	SkipHidden bool
}

// DirectoryResult reports how many documents were queued.
type DirectoryResult struct {
	Statistics ingest.DirStats
	Queued     int
	Rejected   map[string]string // path -> reason
}

// SubmitFile validates and queues a single file.
func (s *Service) SubmitFile(ctx context.Context, req FileRequest) error {
	path := strings.TrimSpace(req.Path)
	name := strings.TrimSpace(req.OriginalName)
	if name == "" && path != "" {
		name = filepath.Base(path)
	}

	v := common.NewValidator().
		Field("path", path, common.Required, common.SupportedExtension, common.RegularFile).
		Field("original_name", name, common.MaxLength(maxNameLength))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("rejected submission", "path", path, "error", v.ErrorMessage())
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "path: %v", err)
	}
	if err := s.queue.Enqueue(ctx, async.Job{Path: abs, OriginalName: name}); err != nil {
		s.logger.Error("enqueue failed", "path", abs, "error", err)
		return status.Errorf(codes.Unavailable, "enqueue: %v", err)
	}
	s.logger.Info("file submitted", "path", abs, "original_name", name)
	return nil
}

// SubmitDirectory queues every supported document under RootPath.
func (s *Service) SubmitDirectory(ctx context.Context, req DirectoryRequest) (*DirectoryResult, error) {
	root := strings.TrimSpace(req.RootPath)
	if root == "" {
		s.logger.Error("directory submission missing root_path")
		return nil, status.Error(codes.InvalidArgument, "root_path is required")
	}

	files, stats, err := ingest.ScanDirectory(root, req.SkipHidden)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "scan directory: %v", err)
	}

	out := &DirectoryResult{Statistics: stats, Rejected: map[string]string{}}
	for _, f := range files {
		if err := s.SubmitFile(ctx, FileRequest{Path: f}); err != nil {
			out.Rejected[f] = status.Convert(err).Message()
			if ctx.Err() != nil {
				return out, status.FromContextError(ctx.Err()).Err()
			}
			continue
		}
		out.Queued++
	}
	s.logger.Info("directory submission completed",
		"root", root, "scanned", stats.Scanned, "matched", stats.Matched, "queued", out.Queued, "rejected", len(out.Rejected))
	return out, nil
}

// Watch feeds watcher events into the queue until ctx ends.
func (s *Service) Watch(ctx context.Context, cfg ingest.WatchConfig) error {
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	events, errs, err := ingest.StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if err := s.SubmitFile(ctx, FileRequest{Path: p}); err != nil {
				s.logger.Warn("watched file not queued", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				s.logger.Warn("watcher reported error", "error", err)
			}
			if !ok {
				errs = nil
			}
		}
	}
}
