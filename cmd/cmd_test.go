package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emrgen/ingest/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEdits(t *testing.T) {
	edits, err := parseEdits([]string{"title=Light", "items[0].answer=a=b", "content="})
	require.NoError(t, err)
	assert.Equal(t, []server.Edit{
		{Path: "title", Value: "Light"},
		{Path: "items[0].answer", Value: "a=b"},
		{Path: "content", Value: ""},
	}, edits)

	_, err = parseEdits([]string{"title"})
	assert.Error(t, err)
	_, err = parseEdits([]string{"=x"})
	assert.Error(t, err)
}

func TestLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiz.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	f, err := localFile(path)
	require.NoError(t, err)
	assert.Equal(t, "quiz.json", f.Name)
	assert.Equal(t, "application/json", f.MediaType)
}

func TestPrintOutput(t *testing.T) {
	done, err := printOutput(outputTable, nil)
	assert.False(t, done)
	assert.NoError(t, err)

	done, err = printOutput("xml", nil)
	assert.True(t, done)
	assert.Error(t, err)
}

func TestParseKindFlag(t *testing.T) {
	kind, err := parseKindFlag("")
	require.NoError(t, err)
	assert.Empty(t, kind)

	_, err = parseKindFlag("video")
	assert.Error(t, err)
}
