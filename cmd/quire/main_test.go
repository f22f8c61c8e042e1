package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "templateName": "ER triage",
  "nodes": [
    {"id": "1", "type": "section", "position": {"x": 0, "y": 0}, "data": {"sectionName": "Arrival", "weight": 2}},
    {"id": "2", "type": "question", "position": {"x": 0, "y": 120},
     "data": {"question": "Arrived by ambulance?", "questionType": "yes-no", "options": [], "isRequired": true}}
  ],
  "edges": [
    {"id": "e1-2", "source": "1", "target": "2", "label": "", "data": {}},
    {"id": "e2-1", "source": "2", "target": "1", "sourceHandle": "yes", "label": "Yes", "data": {}}
  ]
}`

const blankSectionDoc = `{
  "nodes": [{"id": "1", "type": "section", "position": {"x": 0, "y": 0}, "data": {"sectionName": "", "weight": 1}}],
  "edges": []
}`

const danglingDoc = `{
  "nodes": [{"id": "1", "type": "section", "position": {"x": 0, "y": 0}, "data": {"sectionName": "A", "weight": 1}}],
  "edges": [{"id": "e1-9", "source": "1", "target": "9"}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.json", validDoc)
	blank := writeFile(t, "blank.json", blankSectionDoc)
	dangling := writeFile(t, "dangling.json", danglingDoc)

	var out bytes.Buffer
	require.NoError(t, runValidate(&out, []string{good, blank}, false))
	assert.Contains(t, out.String(), "✓ "+good)

	out.Reset()
	err := runValidate(&out, []string{good, blank}, true)
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out.String(), "✗ "+blank)
	assert.Contains(t, out.String(), "nodes[0].data.sectionName")

	out.Reset()
	err = runValidate(&out, []string{dangling}, false)
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out.String(), "✗ "+dangling)
}

func TestValidate_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := runValidate(&out, []string{filepath.Join(t.TempDir(), "nope.json")}, false)
	require.Error(t, err)
	assert.Contains(t, out.String(), "failed to read")
}

func TestGraphCommand(t *testing.T) {
	path := writeFile(t, "doc.json", validDoc)
	out, err := execute(t, "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "Arrival")
}

func TestShowCommand(t *testing.T) {
	path := writeFile(t, "doc.json", validDoc)
	out, err := execute(t, "show", "--raw", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Arrival")
	assert.Contains(t, out, "Arrived by ambulance?")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "quire version dev")
}

func TestMigrateNeedsPostgres(t *testing.T) {
	cfg := writeFile(t, "quire.yaml", "backend:\n  kind: memory\n")
	_, err := execute(t, "migrate", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
