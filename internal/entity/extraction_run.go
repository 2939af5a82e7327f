package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionRun is one pipeline invocation over one document.
type ExtractionRun struct {
	ID            uuid.UUID  `json:"id"`
	DocumentID    string     `json:"document_id"` // sha256 of the file content
	SourcePath    string     `json:"source_path"`
	OriginalName  string     `json:"original_name,omitempty"`
	Format        string     `json:"format"`
	Status        string     `json:"status"`
	Strategy      *string    `json:"strategy,omitempty"`
	CharCount     int        `json:"char_count"`
	Confidence    *float64   `json:"confidence,omitempty"`
	FallbackLevel int        `json:"fallback_level"`
	ProcessingMs  int64      `json:"processing_ms"`
	OCRText       *string    `json:"ocr_text,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// ExtractionAttempt is one strategy try inside a run.
type ExtractionAttempt struct {
	RunID        uuid.UUID `json:"run_id"`
	Seq          int       `json:"seq"`
	Strategy     string    `json:"strategy"`
	Outcome      string    `json:"outcome"`
	CharCount    int       `json:"char_count"`
	Confidence   float64   `json:"confidence"`
	DurationMs   int64     `json:"duration_ms"`
	FromCache    bool      `json:"from_cache"`
	ErrorMessage *string   `json:"error_message,omitempty"`
}

// StrategyPerformance aggregates runs by the strategy that produced their result.
type StrategyPerformance struct {
	Strategy        string  `json:"strategy"`
	Runs            int     `json:"runs"`
	OCRSuccessRate  float64 `json:"ocr_success_rate"`
	AvgCharCount    float64 `json:"avg_char_count"`
	AvgConfidence   float64 `json:"avg_confidence"`
	AvgProcessingMs float64 `json:"avg_processing_ms"`
}

// RunSummary is the totals view used by dbhealth and the export sheet.
type RunSummary struct {
	Total        int     `json:"total"`
	OCRSuccess   int     `json:"ocr_success"`
	FilenameOnly int     `json:"filename_only"`
	Failed       int     `json:"failed"`
	FallbackRate float64 `json:"fallback_rate"`
}
