package store

import "errors"

var (
	// ErrRecordNotFound is returned when no record has the requested id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateRecord is returned when appending a record whose id is already taken.
	ErrDuplicateRecord = errors.New("record id already exists")
	// ErrUnknownDriver is returned for an unsupported store driver.
	ErrUnknownDriver = errors.New("unknown store driver")
)
