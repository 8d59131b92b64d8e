package model

import (
	"errors"
	"fmt"
)

// Kind is the content kind of a record, one of the three document shapes the library understands.
type Kind string

const (
	KindItemList Kind = "itemList"
	KindActivity Kind = "activity"
	KindLesson   Kind = "lesson"
)

// Kinds lists the content kinds in library tab order.
var Kinds = []Kind{KindItemList, KindActivity, KindLesson}

var ErrUnknownKind = errors.New("unknown content kind, expected one of itemList, activity, lesson")

// ParseKind converts a kind name into a Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

func (k Kind) String() string {
	return string(k)
}
