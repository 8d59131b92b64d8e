package editor

import "errors"

var (
	// ErrNoWorkingCopy is returned for edits made while the loaded text does not parse.
	ErrNoWorkingCopy = errors.New("no working copy: load valid JSON first")
	// ErrFieldOutOfRange is returned for an index past the end of a list field.
	ErrFieldOutOfRange = errors.New("field index out of range")
	// ErrFieldType is returned when an edit path runs through a value of the wrong type.
	ErrFieldType = errors.New("field has the wrong type for this edit")
	// ErrUnknownField is returned for an edit path that names no editable field.
	ErrUnknownField = errors.New("unknown field")
)
