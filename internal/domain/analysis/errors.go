package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFile means no dataset was selected.
	ErrMissingFile = errors.New("missing dataset file")
	// ErrMissingAttribute means the sensitive attribute was empty after trimming.
	ErrMissingAttribute = errors.New("missing sensitive attribute")
	// ErrBackendUnreachable covers transport failures and malformed responses.
	ErrBackendUnreachable = errors.New("analysis service unreachable")
	// ErrNoResultAvailable is returned when a report is requested before any analysis succeeded.
	ErrNoResultAvailable = errors.New("no analysis result available")
	// ErrSubmissionInFlight rejects a trigger while another request is outstanding.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrUnreadableDataset is returned when a spreadsheet cannot be converted to CSV.
	ErrUnreadableDataset = errors.New("dataset could not be read")
)

// BackendError is a failure reported by the service itself.
// Message is the server-supplied text and may be empty.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}
