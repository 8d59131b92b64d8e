package content

import (
	"testing"

	"github.com/emrgen/ingest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.Kind
		raw     string
		valid   bool
		wantErr error
		reason  string
	}{
		{name: "lesson", kind: model.KindLesson, raw: `{"type":"lesson","title":"T","content":"C"}`, valid: true},
		{name: "lesson missing content", kind: model.KindLesson, raw: `{"type":"lesson","title":"T"}`, wantErr: ErrShapeMismatch, reason: `missing "content"`},
		{name: "lesson empty title", kind: model.KindLesson, raw: `{"type":"lesson","title":"","content":"C"}`, wantErr: ErrShapeMismatch, reason: `missing "title"`},
		{name: "lesson null content", kind: model.KindLesson, raw: `{"type":"lesson","title":"T","content":null}`, wantErr: ErrShapeMismatch, reason: `missing "content"`},
		{name: "lesson wrong type", kind: model.KindLesson, raw: `{"type":"activity","title":"T","content":"C"}`, wantErr: ErrShapeMismatch, reason: `type is "activity"`},
		{name: "lesson no type", kind: model.KindLesson, raw: `{"title":"T","content":"C"}`, wantErr: ErrShapeMismatch, reason: `missing "type"`},
		{name: "activity", kind: model.KindActivity, raw: `{"type":"activity","title":"T","content":"C","steps":["a"]}`, valid: true},
		{name: "activity numeric title", kind: model.KindActivity, raw: `{"type":"activity","title":7,"content":"C"}`, valid: true},
		{name: "activity zero title", kind: model.KindActivity, raw: `{"type":"activity","title":0,"content":"C"}`, wantErr: ErrShapeMismatch},
		{name: "lesson object title", kind: model.KindLesson, raw: `{"type":"lesson","title":{},"content":"C"}`, valid: true},
		{name: "lesson array content", kind: model.KindLesson, raw: `{"type":"lesson","title":"T","content":[]}`, valid: true},
		{name: "lesson false content", kind: model.KindLesson, raw: `{"type":"lesson","title":"T","content":false}`, wantErr: ErrShapeMismatch, reason: `missing "content"`},
		{name: "lesson numeric type", kind: model.KindLesson, raw: `{"type":1,"title":"T","content":"C"}`, wantErr: ErrShapeMismatch, reason: "type is not a string: 1"},
		{name: "lesson null type", kind: model.KindLesson, raw: `{"type":null,"title":"T","content":"C"}`, wantErr: ErrShapeMismatch, reason: `missing "type"`},
		{name: "lesson empty type", kind: model.KindLesson, raw: `{"type":"","title":"T","content":"C"}`, wantErr: ErrShapeMismatch, reason: `type is ""`},
		{name: "item list", kind: model.KindItemList, raw: `{"type":"itemList","items":[{"question":"q","answer":"a"}]}`, valid: true},
		{name: "item list empty items", kind: model.KindItemList, raw: `{"type":"itemList","items":[]}`, valid: true},
		{name: "item list missing items", kind: model.KindItemList, raw: `{"type":"itemList"}`, wantErr: ErrShapeMismatch, reason: `missing "items"`},
		{name: "item list items object", kind: model.KindItemList, raw: `{"type":"itemList","items":{}}`, wantErr: ErrShapeMismatch, reason: "not an array"},
		{name: "array top level", kind: model.KindItemList, raw: `[1,2]`, wantErr: ErrShapeMismatch},
		{name: "not json", kind: model.KindLesson, raw: `not json`, wantErr: ErrInvalidJSON, reason: "invalid JSON format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate([]byte(tt.raw), tt.kind)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.kind, res.Kind)
			if tt.valid {
				assert.NoError(t, res.Err)
				assert.Empty(t, res.Reason)
				return
			}

			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.Contains(t, res.Reason, tt.reason)
		})
	}
}

func TestValidate_InvalidJSONForEveryKind(t *testing.T) {
	for _, raw := range []string{"not json", "", "{", `{"type":"lesson",}`, "[1,"} {
		for _, kind := range model.Kinds {
			res := Validate([]byte(raw), kind)
			assert.False(t, res.Valid)
			assert.ErrorIs(t, res.Err, ErrInvalidJSON, "%q as %s", raw, kind)
		}
	}
}

func TestValidate_Samples(t *testing.T) {
	for _, kind := range model.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			sample, err := Sample(kind)
			require.NoError(t, err)

			res := Validate([]byte(sample), kind)
			assert.True(t, res.Valid, res.Reason)

			for _, other := range model.Kinds {
				if other == kind {
					continue
				}
				assert.False(t, Validate([]byte(sample), other).Valid)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	sample, err := Sample(model.KindItemList)
	require.NoError(t, err)

	doc, err := Decode([]byte(sample), model.KindItemList)
	require.NoError(t, err)

	list, ok := doc.(*ItemList)
	require.True(t, ok)
	assert.Equal(t, "JavaScript Fundamentals Quiz", list.DisplayTitle())
	require.Len(t, list.Items, 3)
	assert.Equal(t, Text("Using let, const, or var keywords"), list.Items[0].Answer)

	_, err = Decode([]byte(sample), model.KindLesson)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDecodeTagged(t *testing.T) {
	doc, err := DecodeTagged([]byte(`{"type":"activity","title":3,"content":"C","steps":["a",2]}`))
	require.NoError(t, err)

	activity, ok := doc.(*Activity)
	require.True(t, ok)
	assert.Equal(t, "3", activity.DisplayTitle())
	assert.Equal(t, Texts{"a", "2"}, activity.Steps)

	_, err = DecodeTagged([]byte(`{"type":"quiz"}`))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = DecodeTagged([]byte(`nope`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "T", Title([]byte(`{"title":"T"}`)))
	assert.Equal(t, "", Title([]byte(`{"content":"C"}`)))
	assert.Equal(t, "", Title([]byte(`nope`)))
}
