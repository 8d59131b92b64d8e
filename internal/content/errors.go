package content

import "errors"

var (
	// ErrInvalidJSON is returned when the text does not parse as a JSON object.
	ErrInvalidJSON = errors.New("invalid JSON format")
	// ErrShapeMismatch is returned when the document parses but breaks the rule of its content kind.
	ErrShapeMismatch = errors.New("content does not match its kind")
)
