package input

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testConversations = `[{"uuid":"c1","name":"First","chat_messages":[]}]`
	testProjects      = `[{"uuid":"p1","name":"Garden"}]`
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeZip(t *testing.T, path string, entries map[string]string, order []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestResolver_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConversationsFile), testConversations)
	writeFile(t, filepath.Join(dir, ProjectsFile), testProjects)

	data, err := NewResolver().Resolve(context.Background(), dir)
	require.NoError(t, err)

	assert.JSONEq(t, testConversations, string(data.Conversations))
	assert.JSONEq(t, testProjects, string(data.Projects))
	assert.Equal(t, filepath.Join(dir, ConversationsFile), data.Source)
}

func TestResolver_DirectoryWithoutProjects(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConversationsFile), testConversations)

	data, err := NewResolver().Resolve(context.Background(), dir)
	require.NoError(t, err)

	assert.JSONEq(t, testConversations, string(data.Conversations))
	assert.Nil(t, data.Projects)
}

func TestResolver_DirectoryMissingConversations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectsFile), testProjects)

	_, err := NewResolver().Resolve(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFile))

	var inputErr *Error
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, filepath.Join(dir, ConversationsFile), inputErr.Path)
}

func TestResolver_NotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := NewResolver().Resolve(context.Background(), missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), missing)
}

func TestResolver_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.txt")
	writeFile(t, path, testConversations)

	_, err := NewResolver().Resolve(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedInput))
}

func TestResolver_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my-export.JSON")
	writeFile(t, path, testConversations)
	writeFile(t, filepath.Join(dir, ProjectsFile), testProjects)

	data, err := NewResolver().Resolve(context.Background(), path)
	require.NoError(t, err)

	assert.JSONEq(t, testConversations, string(data.Conversations))
	assert.JSONEq(t, testProjects, string(data.Projects), "sibling projects.json is picked up")
}

func TestResolver_SingleFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	writeFile(t, path, `{"conversations": [`)

	_, err := NewResolver().Resolve(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	var inputErr *Error
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, path, inputErr.Path)
}

func TestResolver_SiblingProjectsParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conversations.json")
	writeFile(t, path, testConversations)
	writeFile(t, filepath.Join(dir, ProjectsFile), `not json`)

	_, err := NewResolver().Resolve(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), ProjectsFile)
}

func TestResolver_Zip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	entries := map[string]string{
		"__MACOSX/data/._conversations.json": "\x00\x05binary",
		"data/nested/conversations.json":     testConversations,
		"data/nested/projects.json":          testProjects,
		"data/users.json":                    `[]`,
	}
	writeZip(t, zipPath, entries, []string{
		"__MACOSX/data/._conversations.json",
		"data/users.json",
		"data/nested/conversations.json",
		"data/nested/projects.json",
	})

	data, err := NewResolver().Resolve(context.Background(), zipPath)
	require.NoError(t, err)

	assert.JSONEq(t, testConversations, string(data.Conversations))
	assert.JSONEq(t, testProjects, string(data.Projects))
	assert.Equal(t, zipPath+"!data/nested/conversations.json", data.Source)
}

func TestResolver_ZipMissingConversations(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	writeZip(t, zipPath, map[string]string{"projects.json": testProjects}, []string{"projects.json"})

	_, err := NewResolver().Resolve(context.Background(), zipPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFile))
}

func TestResolver_ZipParseError(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	writeZip(t, zipPath, map[string]string{"conversations.json": "{broken"}, []string{"conversations.json"})

	_, err := NewResolver().Resolve(context.Background(), zipPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), zipPath+"!conversations.json")
}

func TestResolver_CorruptZip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	writeFile(t, zipPath, "this is not a zip archive")

	_, err := NewResolver().Resolve(context.Background(), zipPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestResolver_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConversationsFile), testConversations)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver().Resolve(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
