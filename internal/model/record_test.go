package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Kind
		wantErr bool
	}{
		{name: "item list", input: "itemList", want: KindItemList},
		{name: "activity", input: "activity", want: KindActivity},
		{name: "lesson", input: "lesson", want: KindLesson},
		{name: "wrong case", input: "Lesson", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_DeriveVersion(t *testing.T) {
	root := NewRecord("Intro", "John Doe", KindLesson, `{"type":"lesson"}`)
	assert.True(t, root.IsOriginal())
	assert.Equal(t, root.ID, root.RootID())

	v2 := root.DeriveVersion("Intro (v2)", "Current User", `{"type":"lesson","title":"x"}`)
	assert.Equal(t, int64(2), v2.Version)
	assert.Equal(t, root.ID, *v2.PreviousID)
	assert.Equal(t, root.ID, *v2.OriginalID)
	assert.Equal(t, KindLesson, v2.Kind)
	assert.NotEqual(t, root.ID, v2.ID)

	v3 := v2.DeriveVersion("Intro (v3)", "Current User", `{}`)
	assert.Equal(t, int64(3), v3.Version)
	assert.Equal(t, v2.ID, *v3.PreviousID)
	assert.Equal(t, root.ID, *v3.OriginalID)
}

func TestRecord_Clone(t *testing.T) {
	root := NewRecord("Intro", "John Doe", KindLesson, `{}`)
	v2 := root.DeriveVersion("Intro (v2)", "", `{}`)

	c := v2.Clone()
	*c.PreviousID = "changed"
	assert.Equal(t, root.ID, *v2.PreviousID)
}
