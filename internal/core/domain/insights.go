package domain

import "encoding/json"

const (
	StageRunTimedOut       = "run_timed_out"
	StageTranslationFailed = "invoice_translation_failed"
)

// ExtractionFailedStage and AnalysisFailedStage produce the stable
// stage tags recorded in failure insights, e.g.
// "courier_receipt_analysis_failed".
func ExtractionFailedStage(kind DocumentKind) string {
	return string(kind) + "_extraction_failed"
}

func AnalysisFailedStage(kind DocumentKind) string {
	return string(kind) + "_analysis_failed"
}

// FailureInsight is the structured record persisted when a workflow
// phase fails. Stage is machine-readable; Message is for operators.
type FailureInsight struct {
	Stage    string         `json:"stage"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (f FailureInsight) JSON() json.RawMessage {
	raw, err := json.Marshal(f)
	if err != nil {
		return json.RawMessage(`{"stage":"` + f.Stage + `"}`)
	}
	return raw
}
