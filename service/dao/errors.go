package dao

import "errors"

// Common, reusable DAO errors. Callers detect them with errors.Is.
var (
	// ErrNotFound is returned when the requested artifact, outcome or record
	// does not exist in the underlying storage.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID indicates that the supplied ID/key is empty.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when the caller attempts to persist a nil
	// pointer.
	ErrNilEntity = errors.New("dao: nil entity")

	// ErrDuplicate is returned by Create when the id is already taken.
	ErrDuplicate = errors.New("dao: duplicate id")

	// ErrConflict is returned by Commit when the record changed after it was
	// loaded for update by another writer.
	ErrConflict = errors.New("dao: concurrent modification")

	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("dao: transaction already finished")
)
