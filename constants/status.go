package constants

// RunStatus is the canonical status stored for extraction runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusOK       RunStatus = "OCR_OK"       // an OCR strategy produced the text
	RunStatusFallback RunStatus = "FILENAME_ONLY" // only the filename heuristics produced text
	RunStatusFailed   RunStatus = "FAILED"        // source unreadable
)

// StrategyOutcome is how the pipeline classified one strategy attempt.
type StrategyOutcome string

const (
	OutcomeAccepted     StrategyOutcome = "ACCEPTED"
	OutcomeIdeal        StrategyOutcome = "IDEAL"
	OutcomeInsufficient StrategyOutcome = "INSUFFICIENT"
	OutcomeFailed       StrategyOutcome = "FAILED"
	OutcomeSkipped      StrategyOutcome = "SKIPPED" // not applicable to the source format
)

// Payment statuses recognized in filenames.
const (
	PaymentPaid      = "PAGO"
	PaymentScheduled = "AGENDADO"
)
