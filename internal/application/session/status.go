package session

import (
	"errors"
	"time"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// State of the session workflow.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateRendered   State = "rendered"
	// StateFailed only appears on published statuses; the controller never rests there.
	StateFailed State = "failed"
)

// Tone colours the status area.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// Status is what the status area shows.
type Status struct {
	Tone    Tone      `json:"tone"`
	Message string    `json:"message"`
	State   State     `json:"state"`
	At      time.Time `json:"at"`
}

// Observer receives every published status, in order, outside the controller lock.
type Observer func(Status)

const (
	MsgReady          = "Select a dataset and enter the sensitive attribute."
	MsgValidating     = "Checking input…"
	MsgAnalyzing      = "Analyzing dataset…"
	MsgGenerating     = "Generating report…"
	MsgMissingFile    = "Please upload a dataset file."
	MsgMissingAttr    = "Please enter a sensitive attribute (e.g. gender)."
	MsgUnreachable    = "Analysis service not reachable. Make sure the backend server is running."
	MsgNoResult       = "Run an analysis before downloading a report."
	MsgBusy           = "A request is already in progress."
	MsgUnreadable     = "The dataset file could not be read."
	MsgAnalysisDone   = "Analysis complete."
	MsgReportReady    = "Report ready: "
	MsgUnexpected     = "Something went wrong: "
	MsgReportSaveFail = "Report could not be saved: "
)

// MessageFor turns any workflow error into status text.
func MessageFor(err error) string {
	var backendErr *analysis.BackendError
	switch {
	case errors.Is(err, analysis.ErrMissingFile):
		return MsgMissingFile
	case errors.Is(err, analysis.ErrMissingAttribute):
		return MsgMissingAttr
	case errors.Is(err, analysis.ErrUnreadableDataset):
		return MsgUnreadable
	case errors.Is(err, analysis.ErrNoResultAvailable):
		return MsgNoResult
	case errors.Is(err, analysis.ErrSubmissionInFlight):
		return MsgBusy
	case errors.As(err, &backendErr):
		if backendErr.Message != "" {
			return backendErr.Message
		}
		return MsgUnreachable
	case errors.Is(err, analysis.ErrBackendUnreachable):
		return MsgUnreachable
	default:
		return MsgUnexpected + err.Error()
	}
}
