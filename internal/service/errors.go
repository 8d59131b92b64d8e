package service

import "errors"

var (
	// ErrMissingField is returned when a manual upload leaves a required field empty.
	ErrMissingField = errors.New("missing required field")
	// ErrKindMismatch is returned when a new version declares a different kind than its original.
	ErrKindMismatch = errors.New("content kind differs from the original record")
	// ErrSaveResolved is returned when a pending save is confirmed or cancelled twice.
	ErrSaveResolved = errors.New("pending save was already confirmed or cancelled")
)

// DefaultUploader is the attribution used when the caller gives none.
const DefaultUploader = "Current User"
