package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal pipeline failure.
type Kind string

const (
	KindInvalidRequest    Kind = "INVALID_REQUEST"
	KindUpstreamAI        Kind = "UPSTREAM_AI_FAILURE"
	KindMalformedAIOutput Kind = "MALFORMED_AI_OUTPUT"
	KindCourseLookup      Kind = "COURSE_LOOKUP_FAILURE"
	KindPersistence       Kind = "PERSISTENCE_FAILURE"
)

// Error is returned by every fatal stage. Raw holds the model output for
// KindMalformedAIOutput and is empty otherwise.
type Error struct {
	Kind    Kind
	Message string
	Raw     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a pipeline error or an empty kind.
func KindOf(err error) Kind {
	var pipelineErr *Error
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind
	}
	return ""
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}
