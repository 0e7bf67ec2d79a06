package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNDJSON(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "portal")
	require.NoError(t, os.Mkdir(sub, 0o755))
	for _, name := range []string{
		filepath.Join(dir, "a.jsonl"),
		filepath.Join(sub, "b.jsonl"),
		filepath.Join(sub, "notes.txt"),
	} {
		require.NoError(t, os.WriteFile(name, nil, 0o644))
	}

	files, err := expandPatterns([]string{filepath.Join(dir, "**", "*.jsonl")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jsonl"),
		filepath.Join(sub, "b.jsonl"),
	}, files)

	// The same file matched twice stays a single input.
	files, err = expandPatterns([]string{
		filepath.Join(dir, "*.jsonl"),
		filepath.Join(dir, "a.*"),
	})
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = expandPatterns([]string{filepath.Join(dir, "*.csv")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches no files")
}

func TestTranslateCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "records.jsonl")
	writeNDJSON(t, input,
		`{"title": "Water Quality Measurements Rhine 2019", "format": "csv", "language": "en"}`,
		`{"irrelevant": "nothing translatable here"}`,
	)

	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"translate", input})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "Water Quality Measurements Rhine 2019", rec["title"])
	assert.Equal(t, []any{"CSV"}, rec["format"])
	assert.Equal(t, []any{"en"}, rec["language"])
}

func TestTranslateCommand_Stdin(t *testing.T) {
	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(`{"title": "Read from standard input"}` + "\n"))
	root.SetArgs([]string{"translate"})
	require.NoError(t, root.Execute())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "Read from standard input", rec["title"])
}

func TestTranslateCommand_Diagnostics(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "records.jsonl")
	writeNDJSON(t, input,
		`{"title": "`+strings.Repeat("long title ", 30)+`"}`,
	)

	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetArgs([]string{"translate", "--diagnostics", input})
	require.NoError(t, root.Execute())

	var wrapped struct {
		ID          string         `json:"id"`
		Record      map[string]any `json:"record"`
		Diagnostics []struct {
			Field     string `json:"field"`
			Truncated bool   `json:"truncated"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &wrapped))
	assert.NotEmpty(t, wrapped.ID)
	assert.Contains(t, wrapped.Record, "title")
	require.Len(t, wrapped.Diagnostics, 1)
	assert.Equal(t, "title", wrapped.Diagnostics[0].Field)
	assert.True(t, wrapped.Diagnostics[0].Truncated)
}

func TestTranslateCommand_MalformedInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.jsonl")
	writeNDJSON(t, input, `{"title": "ok"`, `not json`)

	root := Root()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"translate", input})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestCheckConfigCommand(t *testing.T) {
	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetArgs([]string{"check-config"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "configuration ok")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "formats.yaml"), []byte("formats: {}\n"), 0o644))
	root = Root()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", dir, "check-config"})
	require.Error(t, root.Execute())
}
