package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// RunOutcome is what the processor persists when a run finishes.
type RunOutcome struct {
	Status        constants.RunStatus
	Strategy      string
	CharCount     int
	Confidence    float64
	FallbackLevel int
	ProcessingMs  int64
	OCRText       string
	Attempts      []entity.ExtractionAttempt
}

type ExtractionRunRepository interface {
	Start(ctx context.Context, documentID, sourcePath, originalName, format string) (*entity.ExtractionRun, error)
	FinishSuccess(ctx context.Context, runID uuid.UUID, out RunOutcome) error
	FinishFailure(ctx context.Context, runID uuid.UUID, message string, attempts []entity.ExtractionAttempt) error
	GetByID(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.ExtractionRun, error)
	List(ctx context.Context, from, to time.Time) ([]*entity.ExtractionRun, error)
	ListAttempts(ctx context.Context, runID uuid.UUID) ([]entity.ExtractionAttempt, error)
	StrategyPerformance(ctx context.Context, since time.Time) ([]entity.StrategyPerformance, error)
	Summary(ctx context.Context, since time.Time) (entity.RunSummary, error)
}

type extractionRunRepo struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewExtractionRunRepository(db *DB, logger *slog.Logger) ExtractionRunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionRunRepo{db: db, logger: logger, now: time.Now}
}

const runColumns = `id, document_id, source_path, original_name, format, status, strategy, char_count,
	confidence, fallback_level, processing_ms, ocr_text, error_message, started_at, finished_at`

func (r *extractionRunRepo) Start(ctx context.Context, documentID, sourcePath, originalName, format string) (*entity.ExtractionRun, error) {
	run := &entity.ExtractionRun{
		ID:           uuid.New(),
		DocumentID:   documentID,
		SourcePath:   sourcePath,
		OriginalName: originalName,
		Format:       format,
		Status:       string(constants.RunStatusRunning),
		StartedAt:    r.now().UTC().Truncate(time.Millisecond),
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(`INSERT INTO extraction_runs
		(id, document_id, source_path, original_name, format, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(), documentID, sourcePath, originalName, format, run.Status, run.StartedAt.UnixMilli())
	if err != nil {
		r.logger.Error("extraction_run start failed", "document_id", documentID, "error", err)
		return nil, common.NewAppError("DB_ERROR", "start extraction run", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Info("extraction_run started", "run_id", run.ID, "document_id", documentID, "format", format)
	return run, nil
}

func (r *extractionRunRepo) FinishSuccess(ctx context.Context, runID uuid.UUID, out RunOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("DB_ERROR", "begin tx", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, r.db.rebind(`UPDATE extraction_runs SET
		status = ?, strategy = ?, char_count = ?, confidence = ?, fallback_level = ?,
		processing_ms = ?, ocr_text = ?, finished_at = ?
		WHERE id = ?`),
		string(out.Status), out.Strategy, out.CharCount, out.Confidence, out.FallbackLevel,
		out.ProcessingMs, out.OCRText, r.now().UTC().UnixMilli(), runID.String())
	if err != nil {
		r.logger.Error("extraction_run finish(OK) failed", "run_id", runID, "error", err)
		return common.NewAppError("DB_ERROR", "finish extraction run", errors.Join(common.ErrDatabase, err))
	}
	if err := mustAffect(res, runID); err != nil {
		return err
	}
	if err := r.insertAttempts(ctx, tx, runID, out.Attempts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("DB_ERROR", "commit", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Info("extraction_run finished",
		"run_id", runID, "status", out.Status, "strategy", out.Strategy, "chars", out.CharCount)
	return nil
}

func (r *extractionRunRepo) FinishFailure(ctx context.Context, runID uuid.UUID, message string, attempts []entity.ExtractionAttempt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("DB_ERROR", "begin tx", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, r.db.rebind(`UPDATE extraction_runs SET
		status = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		string(constants.RunStatusFailed), message, r.now().UTC().UnixMilli(), runID.String())
	if err != nil {
		r.logger.Error("extraction_run finish(FAILED) failed", "run_id", runID, "error", err)
		return common.NewAppError("DB_ERROR", "fail extraction run", errors.Join(common.ErrDatabase, err))
	}
	if err := mustAffect(res, runID); err != nil {
		return err
	}
	if err := r.insertAttempts(ctx, tx, runID, attempts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("DB_ERROR", "commit", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Warn("extraction_run finished (FAILED)", "run_id", runID, "error", message)
	return nil
}

func (r *extractionRunRepo) insertAttempts(ctx context.Context, tx *sql.Tx, runID uuid.UUID, attempts []entity.ExtractionAttempt) error {
	q := r.db.rebind(`INSERT INTO extraction_attempts
		(run_id, seq, strategy, outcome, char_count, confidence, duration_ms, from_cache, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, a := range attempts {
		if _, err := tx.ExecContext(ctx, q,
			runID.String(), a.Seq, a.Strategy, a.Outcome, a.CharCount, a.Confidence,
			a.DurationMs, boolToInt(a.FromCache), nullString(a.ErrorMessage)); err != nil {
			r.logger.Error("extraction_attempt insert failed", "run_id", runID, "seq", a.Seq, "error", err)
			return common.NewAppError("DB_ERROR", "insert attempt", errors.Join(common.ErrDatabase, err))
		}
	}
	return nil
}

func (r *extractionRunRepo) GetByID(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+runColumns+` FROM extraction_runs WHERE id = ?`), runID.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("extraction run %s", runID), common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("extraction_run get failed", "run_id", runID, "error", err)
		return nil, common.NewAppError("DB_ERROR", "get extraction run", errors.Join(common.ErrDatabase, err))
	}
	return run, nil
}

func (r *extractionRunRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.ExtractionRun, error) {
	return r.listRuns(ctx, `SELECT `+runColumns+` FROM extraction_runs WHERE document_id = ? ORDER BY started_at DESC`, documentID)
}

// List returns runs started in [from, to), oldest first.
func (r *extractionRunRepo) List(ctx context.Context, from, to time.Time) ([]*entity.ExtractionRun, error) {
	return r.listRuns(ctx, `SELECT `+runColumns+` FROM extraction_runs
		WHERE started_at >= ? AND started_at < ? ORDER BY started_at, id`,
		from.UTC().UnixMilli(), to.UTC().UnixMilli())
}

func (r *extractionRunRepo) listRuns(ctx context.Context, q string, args ...any) ([]*entity.ExtractionRun, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		r.logger.Error("extraction_run list failed", "error", err)
		return nil, common.NewAppError("DB_ERROR", "list extraction runs", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.ExtractionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, common.NewAppError("DB_ERROR", "scan extraction run", errors.Join(common.ErrDatabase, err))
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *extractionRunRepo) ListAttempts(ctx context.Context, runID uuid.UUID) ([]entity.ExtractionAttempt, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`SELECT
		seq, strategy, outcome, char_count, confidence, duration_ms, from_cache, error_message
		FROM extraction_attempts WHERE run_id = ? ORDER BY seq`), runID.String())
	if err != nil {
		r.logger.Error("extraction_attempt list failed", "run_id", runID, "error", err)
		return nil, common.NewAppError("DB_ERROR", "list attempts", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.ExtractionAttempt
	for rows.Next() {
		a := entity.ExtractionAttempt{RunID: runID}
		var (
			fromCache int
			errMsg    sql.NullString
		)
		if err := rows.Scan(&a.Seq, &a.Strategy, &a.Outcome, &a.CharCount, &a.Confidence, &a.DurationMs, &fromCache, &errMsg); err != nil {
			return nil, common.NewAppError("DB_ERROR", "scan attempt", errors.Join(common.ErrDatabase, err))
		}
		a.FromCache = fromCache != 0
		if errMsg.Valid {
			a.ErrorMessage = &errMsg.String
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// StrategyPerformance groups finished runs by winning strategy. A run counts
// as an OCR success unless its text came from the filename alone.
func (r *extractionRunRepo) StrategyPerformance(ctx context.Context, since time.Time) ([]entity.StrategyPerformance, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`SELECT
		strategy,
		COUNT(*),
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		AVG(char_count),
		AVG(COALESCE(confidence, 0)),
		AVG(processing_ms)
		FROM extraction_runs
		WHERE strategy IS NOT NULL AND started_at >= ?
		GROUP BY strategy
		ORDER BY COUNT(*) DESC, strategy`),
		string(constants.RunStatusOK), since.UTC().UnixMilli())
	if err != nil {
		r.logger.Error("strategy performance query failed", "error", err)
		return nil, common.NewAppError("DB_ERROR", "strategy performance", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.StrategyPerformance
	for rows.Next() {
		var (
			p  entity.StrategyPerformance
			ok int
		)
		if err := rows.Scan(&p.Strategy, &p.Runs, &ok, &p.AvgCharCount, &p.AvgConfidence, &p.AvgProcessingMs); err != nil {
			return nil, common.NewAppError("DB_ERROR", "scan strategy performance", errors.Join(common.ErrDatabase, err))
		}
		if p.Runs > 0 {
			p.OCRSuccessRate = float64(ok) / float64(p.Runs)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Summary counts runs by status. FallbackRate is filename-only runs over finished runs.
func (r *extractionRunRepo) Summary(ctx context.Context, since time.Time) (entity.RunSummary, error) {
	var s entity.RunSummary
	err := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM extraction_runs WHERE started_at >= ?`),
		string(constants.RunStatusOK), string(constants.RunStatusFallback), string(constants.RunStatusFailed),
		since.UTC().UnixMilli(),
	).Scan(&s.Total, &s.OCRSuccess, &s.FilenameOnly, &s.Failed)
	if err != nil {
		r.logger.Error("run summary query failed", "error", err)
		return s, common.NewAppError("DB_ERROR", "run summary", errors.Join(common.ErrDatabase, err))
	}
	if done := s.OCRSuccess + s.FilenameOnly; done > 0 {
		s.FallbackRate = float64(s.FilenameOnly) / float64(done)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.ExtractionRun, error) {
	var (
		run        entity.ExtractionRun
		id         string
		strategy   sql.NullString
		confidence sql.NullFloat64
		ocrText    sql.NullString
		errMsg     sql.NullString
		startedAt  int64
		finishedAt sql.NullInt64
	)
	if err := s.Scan(&id, &run.DocumentID, &run.SourcePath, &run.OriginalName, &run.Format, &run.Status,
		&strategy, &run.CharCount, &confidence, &run.FallbackLevel, &run.ProcessingMs,
		&ocrText, &errMsg, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad run id %q: %w", id, err)
	}
	run.ID = parsed
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	if strategy.Valid {
		run.Strategy = &strategy.String
	}
	if confidence.Valid {
		run.Confidence = &confidence.Float64
	}
	if ocrText.Valid {
		run.OCRText = &ocrText.String
	}
	if errMsg.Valid {
		run.ErrorMessage = &errMsg.String
	}
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64).UTC()
		run.FinishedAt = &t
	}
	return &run, nil
}

func mustAffect(res sql.Result, runID uuid.UUID) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", fmt.Sprintf("extraction run %s", runID), common.ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
