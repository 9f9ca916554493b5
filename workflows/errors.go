package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a referenced report, ranger or pending
// request does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is returned for malformed or missing input; the operation
// was not attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UploadError is returned when the image relay could not store or delete a
// photo. It blocks submission and content updates; report deletion swallows
// it.
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image %s failed: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// TransientError marks a store failure as retryable by the caller.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("store temporarily unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PartialFailure reports that a multi-step workflow got through some steps
// and then failed, leaving state that needs reconciliation. It must never
// be collapsed into a generic failure: the completed steps are real.
type PartialFailure struct {
	Workflow  string
	RangerID  string
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s partially applied for ranger %s: completed [%s], failed at %q: %v",
		e.Workflow, e.RangerID, strings.Join(e.Completed, ", "), e.Failed, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// storeErr maps raw driver errors into the workflow taxonomy.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransientError{Err: err}
	}
	return err
}
