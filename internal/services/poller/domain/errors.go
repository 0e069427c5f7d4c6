package domain

import "errors"

// Kind classifies which stage of a cycle failed.
type Kind string

const (
	// KindPoll marks a failed read of unprocessed customers. The cycle is
	// skipped and the next tick retries.
	KindPoll Kind = "poll"
	// KindProcess marks a failed per-customer side effect. The write-back for
	// the whole batch is abandoned so every customer is seen again.
	KindProcess Kind = "process"
	// KindWriteBack marks a failed batch update. Nothing in the batch is
	// marked processed and the customers are polled again.
	KindWriteBack Kind = "write_back"
)

// Error is a cycle failure tagged with the stage that produced it.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Wrap creates a cycle error of kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithMetadata creates a cycle error carrying metadata for log lines.
func WrapWithMetadata(kind Kind, message string, metadata map[string]string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Message:  message,
		Metadata: metadata,
		Cause:    cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}
