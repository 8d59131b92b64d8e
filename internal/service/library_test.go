package service

import (
	"context"
	"testing"

	"github.com/emrgen/ingest/internal/compress"
	"github.com/emrgen/ingest/internal/content"
	"github.com/emrgen/ingest/internal/intake"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/queue"
	"github.com/emrgen/ingest/internal/store"
	"github.com/emrgen/ingest/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lessonJSON = `{"type":"lesson","title":"Photosynthesis","content":"Plants convert light."}`

func newLibrary(t *testing.T) (*LibraryService, *queue.MemoryQueue) {
	t.Helper()
	tester.RemoveDBFile()
	tester.Setup()

	events := queue.NewMemoryQueue()
	t.Cleanup(func() { _ = events.Close() })

	return NewLibraryService(store.NewGormStore(tester.TestDB(), compress.NewNop()), events), events
}

func TestLibraryService_Upload(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()

	tests := []struct {
		name string
		req  UploadRequest
		err  error
	}{
		{
			name: "valid lesson",
			req:  UploadRequest{Name: "Photosynthesis", Uploader: "Ada", Kind: model.KindLesson, Content: lessonJSON},
		},
		{
			name: "missing name",
			req:  UploadRequest{Uploader: "Ada", Kind: model.KindLesson, Content: lessonJSON},
			err:  ErrMissingField,
		},
		{
			name: "missing content",
			req:  UploadRequest{Name: "Empty", Uploader: "Ada", Kind: model.KindLesson},
			err:  ErrMissingField,
		},
		{
			name: "wrong shape",
			req:  UploadRequest{Name: "Quiz", Uploader: "Ada", Kind: model.KindLesson, Content: `{"type":"itemList","items":[]}`},
			err:  content.ErrShapeMismatch,
		},
		{
			name: "not json",
			req:  UploadRequest{Name: "Broken", Uploader: "Ada", Kind: model.KindItemList, Content: `{"type":`},
			err:  content.ErrInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := library.Upload(ctx, tt.req)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, record)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), record.Version)
			assert.True(t, record.IsOriginal())
			assert.Equal(t, tt.req.Content, record.Content)
		})
	}

	records, err := library.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLibraryService_UploadFiles(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()

	files := []intake.File{
		{Name: "first.json", MediaType: "application/json", Data: []byte(`{"type":"itemList","items":[{"question":"2+2","answer":"4"}]}`)},
		{Name: "notes.txt", MediaType: "text/plain", Data: []byte("plain")},
		{Name: "broken.json", MediaType: "application/json", Data: []byte(`{"items": [`)},
		{Name: "lesson.json", MediaType: "application/json", Data: []byte(lessonJSON)},
		{Name: "second.json", MediaType: "application/json; charset=utf-8", Data: []byte(`{"type":"itemList","items":[]}`)},
	}

	outcomes, err := library.UploadFiles(ctx, "", model.KindItemList, files)
	require.NoError(t, err)
	require.Len(t, outcomes, len(files))

	names := make([]string, len(outcomes))
	for i, o := range outcomes {
		names[i] = o.Name
	}
	assert.Equal(t, []string{"first", "notes.txt", "broken", "lesson", "second"}, names)

	assert.True(t, outcomes[0].Accepted())
	assert.ErrorIs(t, outcomes[1].Err, intake.ErrUnsupportedMediaType)
	assert.ErrorIs(t, outcomes[2].Err, content.ErrInvalidJSON)
	assert.ErrorIs(t, outcomes[3].Err, content.ErrShapeMismatch)
	assert.True(t, outcomes[4].Accepted())
	assert.Equal(t, DefaultUploader, outcomes[0].Record.Uploader)

	records, err := library.ListRecords(ctx, model.KindItemList)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Name)
	assert.Equal(t, "second", records[1].Name)
}

func TestLibraryService_UploadFilesTooMany(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()

	files := make([]intake.File, intake.MaxBatchSize+1)
	for i := range files {
		files[i] = intake.File{Name: "list.json", MediaType: "application/json", Data: []byte(`{"type":"itemList","items":[]}`)}
	}

	outcomes, err := library.UploadFiles(ctx, "Ada", model.KindItemList, files)
	assert.ErrorIs(t, err, intake.ErrBatchTooLarge)
	assert.Nil(t, outcomes)

	records, err := library.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLibraryService_SaveNewVersion(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()

	v1, err := library.Upload(ctx, UploadRequest{Name: "Photosynthesis", Uploader: "Ada", Kind: model.KindLesson, Content: lessonJSON})
	require.NoError(t, err)

	v2, err := library.SaveNewVersion(ctx, v1.ID, `{"type":"lesson","title":"Photosynthesis","content":"Light to sugar."}`, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Version)
	assert.Equal(t, "Photosynthesis (v2)", v2.Name)
	assert.Equal(t, DefaultUploader, v2.Uploader)
	assert.Equal(t, model.KindLesson, v2.Kind)
	assert.Equal(t, v1.ID, *v2.PreviousID)
	assert.Equal(t, v1.ID, *v2.OriginalID)

	v3, err := library.SaveNewVersion(ctx, v2.ID, `{"type":"lesson","title":"","content":"Untitled."}`, model.KindLesson, "Grace")
	assert.ErrorIs(t, err, content.ErrShapeMismatch)
	assert.Nil(t, v3)

	v3, err = library.SaveNewVersion(ctx, v2.ID, `{"type":"lesson","title":"Light","content":"Again."}`, model.KindLesson, "Grace")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v3.Version)
	assert.Equal(t, "Light (v3)", v3.Name)
	assert.Equal(t, v2.ID, *v3.PreviousID)
	assert.Equal(t, v1.ID, *v3.OriginalID)

	original, err := library.GetRecord(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.Content, original.Content)
	assert.Equal(t, int64(1), original.Version)

	chain, err := library.ListVersions(ctx, v3.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, []string{v1.ID, v2.ID, v3.ID}, []string{chain[0].ID, chain[1].ID, chain[2].ID})
}

func TestLibraryService_SaveNewVersionErrors(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()

	record, err := library.SaveNewVersion(ctx, "missing", lessonJSON, model.KindLesson, "Ada")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.Nil(t, record)

	v1, err := library.Upload(ctx, UploadRequest{Name: "Photosynthesis", Uploader: "Ada", Kind: model.KindLesson, Content: lessonJSON})
	require.NoError(t, err)

	record, err = library.SaveNewVersion(ctx, v1.ID, `{"type":"activity","title":"Lab","content":"Do it."}`, model.KindActivity, "Ada")
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Nil(t, record)

	records, err := library.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLibraryService_Save(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()

	record, err := library.Save(ctx, SaveRequest{Kind: model.KindItemList, Content: `{"type":"itemList","items":[]}`})
	require.NoError(t, err)
	assert.Equal(t, "New itemList", record.Name)
	assert.Equal(t, DefaultUploader, record.Uploader)

	next, err := library.Save(ctx, SaveRequest{Kind: model.KindItemList, Content: `{"type":"itemList","title":"Quiz","items":[]}`, VersionOf: record.ID})
	require.NoError(t, err)
	assert.Equal(t, "Quiz (v2)", next.Name)
}

func TestPendingSave(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()
	req := SaveRequest{Kind: model.KindLesson, Content: lessonJSON, Uploader: "Ada"}

	cancelled := library.Prepare(req)
	assert.Equal(t, req, cancelled.Request())
	require.NoError(t, cancelled.Cancel())
	assert.ErrorIs(t, cancelled.Cancel(), ErrSaveResolved)
	_, err := cancelled.Confirm(ctx)
	assert.ErrorIs(t, err, ErrSaveResolved)

	records, err := library.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, records)

	confirmed := library.Prepare(req)
	record, err := confirmed.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis", record.Name)
	_, err = confirmed.Confirm(ctx)
	assert.ErrorIs(t, err, ErrSaveResolved)

	records, err = library.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLibraryService_VersionOf(t *testing.T) {
	library, _ := newLibrary(t)
	ctx := context.TODO()

	v1, err := library.Upload(ctx, UploadRequest{Name: "Photosynthesis", Uploader: "Ada", Kind: model.KindLesson, Content: lessonJSON})
	require.NoError(t, err)
	v2, err := library.SaveNewVersion(ctx, v1.ID, lessonJSON, "", "Ada")
	require.NoError(t, err)

	assert.Equal(t, "", library.VersionOf(ctx, v1))
	assert.Equal(t, "Photosynthesis", library.VersionOf(ctx, v2))

	orphan := v1.DeriveVersion("Orphan", "Ada", lessonJSON)
	missing := "gone"
	orphan.PreviousID = &missing
	assert.Equal(t, "Unknown", library.VersionOf(ctx, orphan))
}

func TestLibraryService_Events(t *testing.T) {
	library, events := newLibrary(t)
	ctx := context.TODO()
	ch := events.Subscribe(4)

	v1, err := library.Upload(ctx, UploadRequest{Name: "Photosynthesis", Uploader: "Ada", Kind: model.KindLesson, Content: lessonJSON})
	require.NoError(t, err)
	v2, err := library.SaveNewVersion(ctx, v1.ID, lessonJSON, "", "Ada")
	require.NoError(t, err)

	created := <-ch
	assert.Equal(t, queue.RecordCreated, created.Type)
	assert.Equal(t, v1.ID, created.RecordID)

	versioned := <-ch
	assert.Equal(t, queue.RecordVersioned, versioned.Type)
	assert.Equal(t, v2.ID, versioned.RecordID)
	assert.Equal(t, v1.ID, versioned.OriginalID)

	_, err = library.SaveNewVersion(ctx, "missing", lessonJSON, "", "Ada")
	require.Error(t, err)
	select {
	case event := <-ch:
		t.Fatalf("unexpected event %v", event)
	default:
	}
}

func TestLibraryService_MemoryStore(t *testing.T) {
	library := NewLibraryService(store.NewMemoryStore(), nil)
	ctx := context.TODO()

	_, err := library.Upload(ctx, UploadRequest{Name: "Lab", Uploader: "Ada", Kind: model.KindActivity, Content: `{"type":"activity","title":"Lab","content":"Mix."}`})
	require.NoError(t, err)
	_, err = library.Upload(ctx, UploadRequest{Name: "Photosynthesis", Uploader: "Ada", Kind: model.KindLesson, Content: lessonJSON})
	require.NoError(t, err)

	activities, err := library.ListRecords(ctx, model.KindActivity)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Lab", activities[0].Name)
}
