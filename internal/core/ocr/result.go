package ocr

import (
	"time"
	"unicode/utf8"
)

// ExtractionResult is what every strategy, and the pipeline itself, returns.
type ExtractionResult struct {
	Text       string
	Confidence float64 // 0..1
	Strategy   string
	CharCount  int
	// ProcessingTime covers the whole pipeline run and is stamped once, on the returned result.
	ProcessingTime time.Duration
	FallbackLevel  int
	Metadata       map[string]string
}

// NewResult builds a result with CharCount derived from text and confidence clamped to [0,1].
func NewResult(text string, confidence float64, strategy string) ExtractionResult {
	r := ExtractionResult{
		Text:       text,
		Confidence: clamp01(confidence),
		Strategy:   strategy,
		Metadata:   map[string]string{},
	}
	r.Recount()
	return r
}

// Recount recomputes CharCount from Text (characters, not bytes).
func (r *ExtractionResult) Recount() {
	r.CharCount = utf8.RuneCountInString(r.Text)
}

func (r ExtractionResult) ProcessingTimeMs() int64 {
	return r.ProcessingTime.Milliseconds()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
