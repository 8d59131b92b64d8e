package ingest

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/preview"
	"github.com/emrgen/ingest/internal/server"
	"github.com/emrgen/ingest/internal/service"
	"github.com/emrgen/ingest/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) Client {
	t.Helper()

	library := service.NewLibraryService(store.NewMemoryStore(), nil)
	handler := server.NewHandler(library, preview.NewMemoryChannel(time.Minute), server.WithGatherer(prometheus.NewRegistry()))
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "localhost:0", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestClient(t *testing.T) {
	c := newTestClient(t)
	ctx := context.TODO()

	sample, err := c.Sample(ctx, model.KindLesson)
	require.NoError(t, err)

	res, err := c.Validate(ctx, model.KindLesson, sample)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	record, err := c.Upload(ctx, server.UploadRequest{Name: "Sample", Uploader: "Ada", Kind: model.KindLesson, Content: sample})
	require.NoError(t, err)

	next, err := c.SaveVersion(ctx, record.ID, server.SaveVersionRequest{Content: sample})
	require.NoError(t, err)
	assert.Equal(t, "Sample", next.VersionOf)

	chain, err := c.ListVersions(ctx, record.ID)
	require.NoError(t, err)
	assert.Len(t, chain, 2)

	_, err = c.GetRecord(ctx, "missing")
	assert.True(t, IsNotFound(err))

	token, err := c.OpenPreview(ctx, server.PreviewRequest{RecordID: record.ID})
	require.NoError(t, err)
	view, err := c.TakePreview(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, model.KindLesson, view.View.Kind)
}

func TestClient_UploadFiles(t *testing.T) {
	c := newTestClient(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "quiz.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"type":"itemList","items":[]}`), 0o644))
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o644))

	results, err := c.UploadFiles(context.TODO(), model.KindItemList, "Ada", []string{good, bad})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Accepted)
	assert.False(t, results[1].Accepted)

	records, err := c.ListRecords(context.TODO(), model.KindItemList)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "quiz", records[0].Name)
}
