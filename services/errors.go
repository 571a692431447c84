package services

import (
	"errors"
)

// ErrorKind classifies leaderboard failures for logging. Clients always see
// the same failure payload regardless of kind.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindStorage    ErrorKind = "storage"
)

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(err error) error {
	return &Error{Kind: KindValidation, Err: err}
}

func StorageError(err error) error {
	return &Error{Kind: KindStorage, Err: err}
}

// KindOf reports the kind of err. Unclassified errors count as storage
// failures since everything else is validated up front.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
