package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/emrgen/ingest/internal/model"
)

// Result is the outcome of validating a document against a content kind.
type Result struct {
	Kind   model.Kind
	Valid  bool
	Reason string
	Err    error
}

// rule describes the minimal structure a content kind requires.
type rule struct {
	summary  string
	required []string
	// lists are fields that must be present and be JSON arrays
	lists []string
}

var rules = map[model.Kind]rule{
	model.KindItemList: {
		summary: `itemList must have type "itemList" and contain an "items" array`,
		lists:   []string{"items"},
	},
	model.KindActivity: {
		summary:  `activity must have type "activity", title, and content`,
		required: []string{"title", "content"},
	},
	model.KindLesson: {
		summary:  `lesson must have type "lesson", title, and content`,
		required: []string{"title", "content"},
	},
}

// Envelope is the top level of a parsed document, keyed by field name.
type Envelope map[string]json.RawMessage

// Parse decodes raw into an Envelope. Text that is not JSON is ErrInvalidJSON; JSON whose
// top level is not an object is ErrShapeMismatch.
func Parse(raw []byte) (Envelope, error) {
	if !json.Valid(raw) {
		return nil, ErrInvalidJSON
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env == nil {
		return nil, fmt.Errorf("%w: top level must be an object", ErrShapeMismatch)
	}

	return env, nil
}

// Type returns the document's declared type tag, or "" when it is absent or not a string.
func (e Envelope) Type() string {
	var tag string
	if err := json.Unmarshal(e["type"], &tag); err != nil {
		return ""
	}

	return tag
}

// Validate checks raw against the shape rule of kind.
func Validate(raw []byte, kind model.Kind) Result {
	env, err := Parse(raw)
	if errors.Is(err, ErrInvalidJSON) {
		return Result{Kind: kind, Reason: ErrInvalidJSON.Error(), Err: err}
	}
	if err != nil {
		return mismatch(kind, "top level must be an object")
	}

	return ValidateEnvelope(env, kind)
}

// ValidateEnvelope checks an already parsed document against the shape rule of kind.
func ValidateEnvelope(env Envelope, kind model.Kind) Result {
	r, ok := rules[kind]
	if !ok {
		return mismatch(kind, fmt.Sprintf("unknown content kind %q", kind))
	}

	if tag := env.Type(); tag != string(kind) {
		raw := bytes.TrimSpace(env["type"])
		switch {
		case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
			return mismatch(kind, r.summary+`: missing "type"`)
		case tag == "" && raw[0] != '"':
			return mismatch(kind, fmt.Sprintf("%s: type is not a string: %s", r.summary, raw))
		}
		return mismatch(kind, fmt.Sprintf("%s: type is %q", r.summary, tag))
	}

	for _, field := range r.lists {
		value, ok := env[field]
		if !ok {
			return mismatch(kind, fmt.Sprintf("%s: missing %q", r.summary, field))
		}
		if !isArray(value) {
			return mismatch(kind, fmt.Sprintf("%s: %q is not an array", r.summary, field))
		}
	}

	for _, field := range r.required {
		if isEmpty(env[field]) {
			return mismatch(kind, fmt.Sprintf("%s: missing %q", r.summary, field))
		}
	}

	return Result{Kind: kind, Valid: true}
}

func mismatch(kind model.Kind, reason string) Result {
	return Result{
		Kind:   kind,
		Reason: reason,
		Err:    fmt.Errorf("%w: %s", ErrShapeMismatch, reason),
	}
}

func isArray(value json.RawMessage) bool {
	value = bytes.TrimSpace(value)
	return len(value) > 0 && value[0] == '['
}

// isEmpty treats absent, null, "", false and 0 as empty. Arrays and objects count as present,
// even when they have no entries.
func isEmpty(value json.RawMessage) bool {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return true
	}

	var v any
	decoder := json.NewDecoder(bytes.NewReader(value))
	decoder.UseNumber()
	if err := decoder.Decode(&v); err != nil {
		return true
	}

	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}

	return false
}
