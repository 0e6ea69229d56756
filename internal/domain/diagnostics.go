package domain

import "time"

// DiagnosticStatus is the outcome of one startup check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	// DiagnosticStatusWarn marks a check that limits language management
	// but leaves recognition usable.
	DiagnosticStatusWarn DiagnosticStatus = "warn"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// Diagnostic item ids.
const (
	DiagnosticEngine      = "engine"
	DiagnosticDataDir     = "data_dir"
	DiagnosticLanguages   = "languages"
	DiagnosticInfoFileURL = "info_file_url"
)

// DiagnosticItem is one check result. Fixable items can be repaired with
// the diagnostics fix action.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
	Fixable bool             `json:"fixable"`
}

// DiagnosticReport aggregates the checks. HasFailures ignores warnings.
// CanRecognize is false when any check other than the language list URL fails.
type DiagnosticReport struct {
	GeneratedAt  time.Time        `json:"generatedAt"`
	HasFailures  bool             `json:"hasFailures"`
	CanRecognize bool             `json:"canRecognize"`
	Items        []DiagnosticItem `json:"items"`
}
