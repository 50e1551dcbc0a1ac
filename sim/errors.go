package sim

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine and its sub-packages. Callers wrap them
// with fmt.Errorf("%w: ...") and classify with errors.Is or ErrorKind.
var (
	ErrImport   = errors.New("import error")
	ErrAdapter  = errors.New("adapter error")
	ErrRange    = errors.New("range error")
	ErrNotReady = errors.New("result not ready")
)

// Engine construction failures. These are programmer errors, not run failures.
var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrDuplicateTask = errors.New("duplicate task name")
	ErrInvalidTask   = errors.New("invalid task")
)

// TaskError records the task whose own body failed. Dependents that fail
// because of it store the same *TaskError, so the origin survives propagation.
type TaskError struct {
	Task string
	Kind Kind
	Err  error
}

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("task %q (%s): %v", e.Task, e.Kind, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// ErrorKind classifies err into one of the user-visible error kind names.
// Errors that match no kind are reported as "Error".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrImport):
		return "ImportError"
	case errors.Is(err, ErrAdapter):
		return "AdapterError"
	case errors.Is(err, ErrRange):
		return "RangeError"
	case errors.Is(err, ErrNotReady):
		return "NotReadyError"
	default:
		return "Error"
	}
}
