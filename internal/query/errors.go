package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies query compilation failures so callers can map them
// to distinct user-facing outcomes.
type ErrorKind int

const (
	// KindParse means the user supplied a malformed value or an unknown
	// operator.
	KindParse ErrorKind = iota
	// KindUnsupported means the operator is valid but the active index
	// schema version does not carry the field it needs.
	KindUnsupported
	// KindNotFound means an account or group reference resolved to zero
	// matches.
	KindNotFound
	// KindUnavailable means a resolver or its storage failed
	// operationally; the reference may or may not exist.
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindUnsupported:
		return "unsupported"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a typed query compilation failure. Message is safe to show to
// the user; Err carries the underlying cause for unavailable errors.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a compilation error, or KindUnavailable for
// errors that did not originate in this package.
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnavailable
}

func parseErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func unsupportedOperator(name string) error {
	return &Error{
		Kind:    KindUnsupported,
		Message: fmt.Sprintf("'%s' operator is not supported by group index version", name),
	}
}

func unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}
