package macro

import (
	"errors"
	"fmt"
)

// Kind classifies macro execution errors.
type Kind string

const (
	// KindWrongParameters means no usable class could be derived from the parameters.
	KindWrongParameters Kind = "WRONG_PARAMETERS"
	// KindExecutionFailure means the store or the query service failed.
	KindExecutionFailure Kind = "EXECUTION_FAILURE"
)

// Error is returned by Execute. Message is meant for the page reader.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a macro error of kind k.
func IsKind(err error, k Kind) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == k
}

func wrongParameters(message string) *Error {
	return &Error{Kind: KindWrongParameters, Message: message}
}

func executionFailure(message string, err error) *Error {
	return &Error{Kind: KindExecutionFailure, Message: message, Err: err}
}
