package rag

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the pipeline matches exactly one of these with errors.Is.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrDocumentLoad    = errors.New("document load error")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrEmbedding       = errors.New("embedding error")
	ErrIndex           = errors.New("index error")
	ErrGeneration      = errors.New("generation error")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Error carries an error kind, the strategy it concerns and the underlying cause.
type Error struct {
	Kind     error
	Strategy string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Strategy != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Strategy)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns err as an *Error of the given kind. An err that already carries a kind keeps it.
func Wrap(kind error, strategy string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		if re.Strategy == "" && strategy != "" {
			return &Error{Kind: re.Kind, Strategy: strategy, Err: re.Err}
		}
		return err
	}
	return &Error{Kind: kind, Strategy: strategy, Err: err}
}

// KindOf reports the kind of err, or nil if err carries none.
func KindOf(err error) error {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return nil
}
