package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/emrgen/ingest/internal/content"
	"github.com/emrgen/ingest/internal/model"
)

// ErrUnknownContentType is returned when a document's type tag names no content kind.
var ErrUnknownContentType = errors.New("unknown content type")

// View is the read-only projection of a document.
type View struct {
	Kind     model.Kind `json:"kind"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	Sections []Section  `json:"sections,omitempty"`
}

// Section is a headed list below the body.
type Section struct {
	Heading string  `json:"heading"`
	Ordered bool    `json:"ordered"`
	Entries []Entry `json:"entries"`
}

type Entry struct {
	Text   string `json:"text"`
	Detail string `json:"detail,omitempty"`
}

// Render projects raw into a View chosen by the document's own type tag.
func Render(raw string) (*View, error) {
	env, err := content.Parse([]byte(raw))
	if errors.Is(err, content.ErrInvalidJSON) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrUnknownContentType)
	}

	tag := env.Type()
	switch model.Kind(tag) {
	case model.KindLesson:
		var lesson content.Lesson
		if err := json.Unmarshal([]byte(raw), &lesson); err != nil {
			return nil, fmt.Errorf("%w: %v", content.ErrShapeMismatch, err)
		}
		view := &View{Kind: model.KindLesson, Title: lesson.Title.String(), Body: lesson.Content.String()}
		if lesson.LearningObjectives != nil {
			view.Sections = append(view.Sections, textSection("Learning Objectives", false, lesson.LearningObjectives))
		}
		return view, nil

	case model.KindActivity:
		var activity content.Activity
		if err := json.Unmarshal([]byte(raw), &activity); err != nil {
			return nil, fmt.Errorf("%w: %v", content.ErrShapeMismatch, err)
		}
		view := &View{Kind: model.KindActivity, Title: activity.Title.String(), Body: activity.Description.String()}
		if activity.Steps != nil {
			view.Sections = append(view.Sections, textSection("Steps", true, activity.Steps))
		}
		return view, nil

	case model.KindItemList:
		var list content.ItemList
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("%w: %v", content.ErrShapeMismatch, err)
		}
		section := Section{Heading: "Items", Ordered: true, Entries: make([]Entry, 0, len(list.Items))}
		for _, item := range list.Items {
			section.Entries = append(section.Entries, Entry{Text: item.Question.String(), Detail: item.Answer.String()})
		}
		return &View{Kind: model.KindItemList, Title: list.Title.String(), Body: list.Description.String(), Sections: []Section{section}}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, tag)
}

func textSection(heading string, ordered bool, texts content.Texts) Section {
	section := Section{Heading: heading, Ordered: ordered, Entries: make([]Entry, 0, len(texts))}
	for _, text := range texts {
		section.Entries = append(section.Entries, Entry{Text: text.String()})
	}

	return section
}

// String renders the view as plain text.
func (v *View) String() string {
	var b strings.Builder
	if v.Title != "" {
		b.WriteString(v.Title + "\n\n")
	}
	if v.Body != "" {
		b.WriteString(v.Body + "\n")
	}

	for _, section := range v.Sections {
		b.WriteString("\n" + section.Heading + "\n")
		for i, entry := range section.Entries {
			bullet := "-"
			if section.Ordered {
				bullet = fmt.Sprintf("%d.", i+1)
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", bullet, entry.Text))
			if entry.Detail != "" {
				b.WriteString("     " + entry.Detail + "\n")
			}
		}
	}

	return b.String()
}
