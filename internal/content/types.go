package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emrgen/ingest/internal/model"
)

// Text is a display value decoded from any JSON scalar.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	// numbers, booleans and nested values are shown as written
	*t = Text(strings.TrimSpace(string(data)))
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Texts decodes a JSON array of scalars; any other value decodes to nil.
type Texts []Text

func (t *Texts) UnmarshalJSON(data []byte) error {
	if !isArray(data) {
		*t = nil
		return nil
	}

	var items []Text
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*t = items

	return nil
}

// Lesson is the lesson content kind.
type Lesson struct {
	Type               string `json:"type"`
	Title              Text   `json:"title"`
	Content            Text   `json:"content"`
	LearningObjectives Texts  `json:"learningObjectives,omitempty"`
}

// Activity is the activity content kind.
type Activity struct {
	Type               string `json:"type"`
	Title              Text   `json:"title"`
	Content            Text   `json:"content"`
	Description        Text   `json:"description,omitempty"`
	LearningObjectives Texts  `json:"learningObjectives,omitempty"`
	Steps              Texts  `json:"steps,omitempty"`
}

// ItemList is the item list content kind.
type ItemList struct {
	Type        string `json:"type"`
	Title       Text   `json:"title,omitempty"`
	Description Text   `json:"description,omitempty"`
	Items       []Item `json:"items"`
}

// Item is one question/answer pair in an item list. Non-object items decode empty.
type Item struct {
	Question Text `json:"question"`
	Answer   Text `json:"answer"`
}

func (i *Item) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*i = Item{}
		return nil
	}

	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = Item(p)

	return nil
}

// Document is a decoded content variant: *Lesson, *Activity or *ItemList.
type Document interface {
	Kind() model.Kind
	DisplayTitle() string
}

func (*Lesson) Kind() model.Kind   { return model.KindLesson }
func (*Activity) Kind() model.Kind { return model.KindActivity }
func (*ItemList) Kind() model.Kind { return model.KindItemList }

func (l *Lesson) DisplayTitle() string   { return l.Title.String() }
func (a *Activity) DisplayTitle() string { return a.Title.String() }
func (l *ItemList) DisplayTitle() string { return l.Title.String() }

// Decode validates raw against kind and decodes it into the matching variant.
func Decode(raw []byte, kind model.Kind) (Document, error) {
	if res := Validate(raw, kind); !res.Valid {
		return nil, res.Err
	}

	return decodeVariant(raw, kind)
}

// DecodeTagged decodes raw into the variant named by its own type tag.
func DecodeTagged(raw []byte) (Document, error) {
	env, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	kind, err := model.ParseKind(env.Type())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	return Decode(raw, kind)
}

func decodeVariant(raw []byte, kind model.Kind) (Document, error) {
	var doc Document
	switch kind {
	case model.KindLesson:
		doc = &Lesson{}
	case model.KindActivity:
		doc = &Activity{}
	case model.KindItemList:
		doc = &ItemList{}
	default:
		return nil, fmt.Errorf("%w: unknown content kind %q", ErrShapeMismatch, kind)
	}

	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	return doc, nil
}

// Title returns the document's title, or "" when it has none or does not parse.
func Title(raw []byte) string {
	env, err := Parse(raw)
	if err != nil {
		return ""
	}

	var title Text
	if err := json.Unmarshal(env["title"], &title); err != nil {
		return ""
	}

	return title.String()
}
