package shortener

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for codes that do not exist or have expired.
	ErrNotFound = errors.New("short url not found")
	// ErrGone is returned when a single-use short URL was already consumed.
	ErrGone = errors.New("short url already used")
	// ErrUnauthorized is returned when a deletion secret does not match any record.
	ErrUnauthorized = errors.New("invalid deletion secret")
	// ErrCacheMiss is returned by caches for absent keys.
	ErrCacheMiss = errors.New("cache miss")
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError reports a failed store operation.
type PersistenceError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistence) hold for any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsTransient reports whether err is a store failure caused by a timeout.
func IsTransient(err error) bool {
	var perr *PersistenceError
	if errors.As(err, &perr) {
		return perr.Transient
	}

	return false
}

func newPersistenceError(op string, err error) error {
	return &PersistenceError{
		Op:        op,
		Transient: errors.Is(err, context.DeadlineExceeded),
		Err:       err,
	}
}
