// Package errors is a small drop-in-flavored wrapper around the standard
// library's error interface, in the style xray-core uses throughout its
// proxy packages: callers build errors with New and chain context onto
// the failure as it unwinds.
package errors

import (
	"fmt"
	"strings"
)

// Severity controls how a log line renders an error; it does not affect
// control flow.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityDebug
	SeverityWarning
	SeverityError
)

// Kind tags an error with one of the implementation-neutral categories
// named in the core request-pipeline spec.
type Kind int

const (
	KindUnspecified Kind = iota
	KindInvalidInput
	KindInvalidData
	KindUnsupported
	KindConnectionRefused
	KindConnectionReset
	KindAddrNotAvailable
	KindBrokenPipe
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindInvalidData:
		return "InvalidData"
	case KindUnsupported:
		return "Unsupported"
	case KindConnectionRefused:
		return "ConnectionRefused"
	case KindConnectionReset:
		return "ConnectionReset"
	case KindAddrNotAvailable:
		return "AddrNotAvailable"
	case KindBrokenPipe:
		return "BrokenPipe"
	default:
		return "Unspecified"
	}
}

// Error is an error object carrying an optional prefix, a message, an
// inner cause, a kind, and a severity.
type Error struct {
	prefix   []interface{}
	message  []interface{}
	inner    error
	kind     Kind
	severity Severity
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	for _, p := range e.prefix {
		b.WriteByte('[')
		fmt.Fprint(&b, p)
		b.WriteString("] ")
	}
	fmt.Fprint(&b, e.message...)
	if e.inner != nil {
		b.WriteString(" > ")
		b.WriteString(e.inner.Error())
	}
	return b.String()
}

// Unwrap exposes the inner cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.inner
}

// Base attaches an inner cause.
func (e *Error) Base(inner error) *Error {
	e.inner = inner
	return e
}

// WithKind tags the error with a Kind.
func (e *Error) WithKind(k Kind) *Error {
	e.kind = k
	return e
}

// Kind returns the error's Kind, walking Unwrap chains if this error was
// not itself tagged.
func (e *Error) Kind() Kind {
	if e.kind != KindUnspecified {
		return e.kind
	}
	var inner *Error
	if As(e.inner, &inner) {
		return inner.Kind()
	}
	return KindUnspecified
}

// As is a tiny local copy of errors.As restricted to *Error, avoiding an
// import cycle concern while keeping call sites reading naturally.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func (e *Error) atSeverity(s Severity) *Error {
	e.severity = s
	return e
}

// AtDebug, AtInfo, AtWarning, AtError set the log severity for this error.
func (e *Error) AtDebug() *Error   { return e.atSeverity(SeverityDebug) }
func (e *Error) AtInfo() *Error    { return e.atSeverity(SeverityInfo) }
func (e *Error) AtWarning() *Error { return e.atSeverity(SeverityWarning) }
func (e *Error) AtError() *Error   { return e.atSeverity(SeverityError) }

// Severity returns the configured severity.
func (e *Error) Severity() Severity {
	return e.severity
}

// New creates a new Error from the given message parts.
func New(msg ...interface{}) *Error {
	return &Error{message: msg, severity: SeverityInfo}
}
