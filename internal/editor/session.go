package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/emrgen/ingest/internal/content"
	"github.com/emrgen/ingest/internal/model"
)

const (
	fieldTitle      = "title"
	fieldContent    = "content"
	fieldObjectives = "learningObjectives"
	fieldItems      = "items"
	fieldQuestion   = "question"
	fieldAnswer     = "answer"
)

// Field is one editable control of the form view.
type Field struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// SaveDraft is what a session hands back to the caller on save.
type SaveDraft struct {
	Content    string     `json:"content"`
	Kind       model.Kind `json:"kind"`
	NewVersion bool       `json:"newVersion"`
}

// Session keeps a working copy of one document while it is edited.
// The loaded text is never changed; edits only touch the working copy.
type Session struct {
	kind     model.Kind
	original string
	doc      *object
	err      error
	dirty    bool
}

func NewSession(kind model.Kind) *Session {
	return &Session{kind: kind}
}

// Load replaces the working copy with the parse of text. On failure the session only
// shows the error until valid text is loaded.
func (s *Session) Load(text string) error {
	s.original = text
	s.dirty = false
	s.doc, s.err = parse(text)

	return s.err
}

// Err returns the parse error of the last Load, if any.
func (s *Session) Err() error {
	return s.err
}

func (s *Session) Kind() model.Kind {
	return s.kind
}

// Original returns the text as it was loaded.
func (s *Session) Original() string {
	return s.original
}

// Dirty reports whether the working copy was edited since the last Load.
func (s *Session) Dirty() bool {
	return s.dirty
}

func (s *Session) SetTitle(value string) error {
	return s.setTop(fieldTitle, value)
}

func (s *Session) SetContent(value string) error {
	return s.setTop(fieldContent, value)
}

// SetObjective edits the i-th learning objective.
func (s *Session) SetObjective(i int, value string) error {
	list, err := s.list(fieldObjectives, i)
	if err != nil {
		return err
	}
	list[i] = value
	s.dirty = true

	return nil
}

func (s *Session) SetItemQuestion(i int, value string) error {
	return s.setItem(i, fieldQuestion, value)
}

func (s *Session) SetItemAnswer(i int, value string) error {
	return s.setItem(i, fieldAnswer, value)
}

// Apply edits the field at path, as reported by Fields.
func (s *Session) Apply(path, value string) error {
	switch path {
	case fieldTitle:
		return s.SetTitle(value)
	case fieldContent:
		return s.SetContent(value)
	}

	key, rest, ok := strings.Cut(path, "[")
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	index, sub, ok := strings.Cut(rest, "]")
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	i, err := strconv.Atoi(index)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}

	switch {
	case key == fieldObjectives && sub == "":
		return s.SetObjective(i, value)
	case key == fieldItems && sub == "."+fieldQuestion:
		return s.SetItemQuestion(i, value)
	case key == fieldItems && sub == "."+fieldAnswer:
		return s.SetItemAnswer(i, value)
	}

	return fmt.Errorf("%w: %s", ErrUnknownField, path)
}

// Fields projects the working copy into form controls: title, content, the learning
// objectives, then the question and answer of every item.
func (s *Session) Fields() []Field {
	if s.doc == nil {
		return nil
	}

	var fields []Field
	for _, top := range []struct{ key, label string }{{fieldTitle, "Title"}, {fieldContent, "Content"}} {
		if v, ok := s.doc.get(top.key); ok {
			fields = append(fields, Field{Path: top.key, Label: top.label, Value: display(v)})
		}
	}

	if objectives, ok := s.value(fieldObjectives).([]any); ok {
		for i, v := range objectives {
			fields = append(fields, Field{
				Path:  fmt.Sprintf("%s[%d]", fieldObjectives, i),
				Label: fmt.Sprintf("Learning Objective %d", i+1),
				Value: display(v),
			})
		}
	}

	if items, ok := s.value(fieldItems).([]any); ok {
		for i, v := range items {
			item, ok := v.(*object)
			if !ok {
				continue
			}
			question, _ := item.get(fieldQuestion)
			answer, _ := item.get(fieldAnswer)
			fields = append(fields,
				Field{Path: fmt.Sprintf("%s[%d].%s", fieldItems, i, fieldQuestion), Label: fmt.Sprintf("Item %d Question", i+1), Value: display(question)},
				Field{Path: fmt.Sprintf("%s[%d].%s", fieldItems, i, fieldAnswer), Label: fmt.Sprintf("Item %d Answer", i+1), Value: display(answer)},
			)
		}
	}

	return fields
}

// Text serializes the working copy with a two space indent. Keys keep the order they were
// loaded in and text is written as is, without html escapes.
func (s *Session) Text() (string, error) {
	if s.doc == nil {
		return "", ErrNoWorkingCopy
	}

	var buf bytes.Buffer
	if err := encodeIndent(&buf, s.doc); err != nil {
		return "", err
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// Save hands the serialized working copy to the caller. What newVersion means is up to the caller.
func (s *Session) Save(newVersion bool) (SaveDraft, error) {
	text, err := s.Text()
	if err != nil {
		return SaveDraft{}, err
	}

	return SaveDraft{Content: text, Kind: s.kind, NewVersion: newVersion}, nil
}

func (s *Session) setTop(key, value string) error {
	if s.doc == nil {
		return ErrNoWorkingCopy
	}
	s.doc.set(key, value)
	s.dirty = true

	return nil
}

func (s *Session) setItem(i int, key, value string) error {
	list, err := s.list(fieldItems, i)
	if err != nil {
		return err
	}

	item, ok := list[i].(*object)
	if !ok {
		return fmt.Errorf("%w: %s[%d] is not an object", ErrFieldType, fieldItems, i)
	}
	item.set(key, value)
	s.dirty = true

	return nil
}

// list returns the array under key after checking that i indexes into it.
func (s *Session) list(key string, i int) ([]any, error) {
	if s.doc == nil {
		return nil, ErrNoWorkingCopy
	}

	value, ok := s.doc.get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no entries", ErrFieldOutOfRange, key)
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an array", ErrFieldType, key)
	}
	if i < 0 || i >= len(list) {
		return nil, fmt.Errorf("%w: %s[%d] of %d", ErrFieldOutOfRange, key, i, len(list))
	}

	return list, nil
}

// value returns the top level value under key, or nil.
func (s *Session) value(key string) any {
	v, _ := s.doc.get(key)
	return v
}

// parse decodes an object document keeping numbers exact and keys in input order.
func parse(text string) (*object, error) {
	if !json.Valid([]byte(text)) {
		return nil, content.ErrInvalidJSON
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()
	value, err := readValue(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", content.ErrInvalidJSON, err)
	}
	doc, ok := value.(*object)
	if !ok {
		return nil, fmt.Errorf("%w: top level must be an object", content.ErrShapeMismatch)
	}

	return doc, nil
}

func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return fmt.Sprint(v)
	}
	return buf.String()
}
