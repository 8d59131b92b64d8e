package store

import (
	"context"
	"testing"

	"github.com/emrgen/ingest/internal/compress"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStore_Postgres(t *testing.T) {
	if !tester.DockerEnabled() {
		t.Skip("set INGEST_DOCKER_TESTS=1 to run against postgres")
	}

	db, purge, err := tester.SetupPostgres()
	require.NoError(t, err)
	defer purge()

	ctx := context.TODO()
	s := NewGormStore(db, compress.NewBrotli())

	root := model.NewRecord("Quiz", "a", model.KindItemList, `{"type":"itemList","items":[]}`)
	require.NoError(t, s.AppendRecord(ctx, root))
	v2 := root.DeriveVersion("Quiz (v2)", "a", `{"type":"itemList","items":[{"question":"q"}]}`)
	require.NoError(t, s.AppendRecord(ctx, v2))

	versions, err := s.ListVersions(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, v2.Content, versions[1].Content)
}
