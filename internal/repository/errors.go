package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds surfaced across the storage boundary. Callers match with
// errors.Is instead of inspecting driver errors.
var (
	// ErrNotFound wraps gorm.ErrRecordNotFound for the engine's entities.
	ErrNotFound = errors.New("record not found")

	// ErrAttemptCompleted means the attempt has been finalized; no further
	// answer writes or submissions are accepted.
	ErrAttemptCompleted = errors.New("attempt already completed")

	// ErrValidation marks a programming-contract violation (e.g. an option id
	// that does not belong to the question). No state was mutated.
	ErrValidation = errors.New("validation failed")
)

// transientError wraps storage/network hiccups that the autosave scheduler may
// retry with backoff.
type transientError struct {
	err error
}

func (t *transientError) Error() string { return fmt.Sprintf("transient: %v", t.err) }
func (t *transientError) Unwrap() error { return t.err }

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is retryable. Anything not explicitly
// permanent (not-found, completed-conflict, validation) counts as transient:
// the usual cause is the database being briefly unreachable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAttemptCompleted) || errors.Is(err, ErrValidation) {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	return true
}

// notFound converts gorm's sentinel into the engine's.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
