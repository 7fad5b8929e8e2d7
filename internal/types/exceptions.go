package types

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	LexErrorTag    ErrorTag = "LexError"
	ParseErrorTag  ErrorTag = "ParseError"
	EvalErrorTag   ErrorTag = "EvalError"
	ValueErrorTag  ErrorTag = "ValueError"
	SystemErrorTag ErrorTag = "SystemError"
)

// Exception is an error that can be rendered to a host as structured data.
type Exception interface {
	error
	Exception() any
}

// Kinded is implemented by errors that carry a machine readable kind
// such as "UnexpectedToken" or "DivisionByZero".
type Kinded interface {
	Kind() string
}

type Error struct {
	Tag   ErrorTag
	Err   error
	Extra map[string]any
}

var _ Exception = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the kind of the innermost kinded error, or the tag itself.
func (e *Error) Kind() string {
	var kinded Kinded
	if e.Err != nil && errors.As(e.Err, &kinded) {
		return kinded.Kind()
	}
	return string(e.Tag)
}

// Message returns the error message without the tag prefix.
func (e *Error) Message() string {
	if e.Err == nil {
		return string(e.Tag)
	}
	return e.Err.Error()
}

func (e *Error) Exception() any {
	var tags []any
	for err := error(e); err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
	}

	o := map[string]any{
		"tags":    tags,
		"kind":    e.Kind(),
		"message": e.Message(),
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}

// TagOf returns the tag of the outermost *Error in the chain of err.
func TagOf(err error) (ErrorTag, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Tag, true
	}
	return "", false
}
