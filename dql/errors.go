package dql

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrIO              ErrorKind = "io"
	ErrSQL             ErrorKind = "sql"
	ErrQueryParse      ErrorKind = "query_parse"
	ErrTranslate       ErrorKind = "translate"
	ErrConfig          ErrorKind = "config"
	ErrNotFound        ErrorKind = "not_found"
	ErrInvalidDocument ErrorKind = "invalid_document"
	ErrCursor          ErrorKind = "cursor"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func QueryParseError(cause error) *Error {
	return &Error{Kind: ErrQueryParse, Message: "invalid query", Cause: cause}
}

func InvalidDocument(msg string) *Error {
	return &Error{Kind: ErrInvalidDocument, Message: msg}
}

func CursorError(msg string) *Error {
	return &Error{Kind: ErrCursor, Message: msg}
}

func NotFoundError(id string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("document not found: %s", id)}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
