package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todomvc/app"
	"todomvc/store"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".data"))
	for _, key := range []string{
		"TODOMVC_STORAGE", "TODOMVC_DIR", "TODOMVC_KEY", "TODOMVC_BACKUPS",
		"TODOMVC_WATCH", "TODOMVC_FILTER", "TODOMVC_LOG_LEVEL", "TODOMVC_LOG_FORMAT",
		"TODOMVC_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
	return filepath.Join(home, "data")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "todomvc %s", strings.Join(args, " "))
	return out
}

func storedItems(t *testing.T, dir string) *app.TodoStore {
	t.Helper()
	return app.NewTodoStore(store.NewFileAdapter(dir, store.DefaultKey, 0))
}

func TestAddAndList(t *testing.T) {
	dir := isolateEnv(t)

	out := mustRun(t, "--dir", dir, "add", "Buy", "milk")
	assert.Contains(t, out, "added")
	assert.Contains(t, out, "Buy milk")

	mustRun(t, "--dir", dir, "add", "Walk dog")

	out = mustRun(t, "--dir", dir, "ls")
	assert.Contains(t, out, "[ ]")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Walk dog")
	assert.Contains(t, out, "2 items left")

	s := storedItems(t, dir)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "Buy milk", s.AllItems()[0].Content)
}

func TestAddBlankFails(t *testing.T) {
	dir := isolateEnv(t)
	_, err := run(t, "--dir", dir, "add", "   ")
	require.Error(t, err)
	assert.Equal(t, 0, storedItems(t, dir).Len())
}

func TestToggleByPrefixAndFilter(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--dir", dir, "add", "Buy milk")
	mustRun(t, "--dir", dir, "add", "Walk dog")

	id := storedItems(t, dir).AllItems()[0].ID
	out := mustRun(t, "--dir", dir, "toggle", id[:8])
	assert.Contains(t, out, "completed")

	out = mustRun(t, "--dir", dir, "ls", "--filter", "completed")
	assert.Contains(t, out, "Buy milk")
	assert.NotContains(t, out, "Walk dog")
	assert.Contains(t, out, "1 item left")

	out = mustRun(t, "--dir", dir, "ls", "-f", "Active")
	assert.NotContains(t, out, "Buy milk")
	assert.Contains(t, out, "Walk dog")

	out = mustRun(t, "--dir", dir, "ls", "-f", "bogus")
	assert.Contains(t, out, "filter: All")
}

func TestEditAndRemove(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--dir", dir, "add", "Draft")
	id := storedItems(t, dir).AllItems()[0].ID

	mustRun(t, "--dir", dir, "edit", id, "Final", "copy")
	item, ok := storedItems(t, dir).Get(id)
	require.True(t, ok)
	assert.Equal(t, "Final copy", item.Content)

	_, err := run(t, "--dir", dir, "edit", id, "  ")
	require.Error(t, err)

	mustRun(t, "--dir", dir, "rm", id)
	assert.Equal(t, 0, storedItems(t, dir).Len())
}

func TestUnknownIDFails(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--dir", dir, "add", "A")

	_, err := run(t, "--dir", dir, "toggle", "does-not-exist")
	require.ErrorIs(t, err, errNoMatch)
}

func TestAmbiguousPrefixFails(t *testing.T) {
	dir := isolateEnv(t)
	payload := `[{"id":"abc1","content":"one","complete":false},{"id":"abc2","content":"two","complete":false}]`
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "todos.json"), []byte(payload), 0o644))

	_, err := run(t, "--dir", dir, "rm", "abc")
	require.ErrorIs(t, err, errAmbiguous)

	mustRun(t, "--dir", dir, "rm", "abc2")
	assert.Equal(t, 1, storedItems(t, dir).Len())
}

func TestToggleAllAndClearCompleted(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--dir", dir, "add", "A")
	mustRun(t, "--dir", dir, "add", "B")

	out := mustRun(t, "--dir", dir, "toggle-all")
	assert.Contains(t, out, "0 item left")

	out = mustRun(t, "--dir", dir, "toggle-all")
	assert.Contains(t, out, "2 items left")

	mustRun(t, "--dir", dir, "toggle-all")
	out = mustRun(t, "--dir", dir, "clear-completed")
	assert.Contains(t, out, "cleared 2 completed")
	assert.Equal(t, 0, storedItems(t, dir).Len())
}

func TestKeyFlagSeparatesLists(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--dir", dir, "--key", "work", "add", "Ship release")
	mustRun(t, "--dir", dir, "add", "Buy milk")

	out := mustRun(t, "--dir", dir, "--key", "work", "ls")
	assert.Contains(t, out, "Ship release")
	assert.NotContains(t, out, "Buy milk")
	assert.FileExists(t, filepath.Join(dir, "work.json"))
}

func TestSQLiteBackend(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--storage", "sqlite", "--dir", dir, "add", "Stored in sqlite")

	out := mustRun(t, "--storage", "sqlite", "--dir", dir, "ls")
	assert.Contains(t, out, "Stored in sqlite")
	assert.FileExists(t, filepath.Join(dir, "todomvc.db"))
	assert.NoFileExists(t, filepath.Join(dir, "todos.json"))
}

func TestRestoreFromBackup(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--dir", dir, "add", "keep me")
	mustRun(t, "--dir", dir, "add", "second")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "todos.json"), []byte("{broken"), 0o644))
	out := mustRun(t, "--dir", dir, "ls")
	assert.Contains(t, out, "no todos")

	out = mustRun(t, "--dir", dir, "restore")
	assert.Contains(t, out, "restored 1 todos")

	s := storedItems(t, dir)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "keep me", s.AllItems()[0].Content)
}

func TestRestoreOverValidFileKeepsItInBackup(t *testing.T) {
	dir := isolateEnv(t)
	mustRun(t, "--dir", dir, "add", "first")
	mustRun(t, "--dir", dir, "add", "latest")

	out := mustRun(t, "--dir", dir, "restore")
	assert.Contains(t, out, "restored 1 todos")
	assert.Equal(t, 1, storedItems(t, dir).Len())

	bak := app.NewTodoStore(store.NewMemoryAdapter(readFile(t, filepath.Join(dir, "todos.json.bak"))))
	require.Equal(t, 2, bak.Len())
	assert.Equal(t, "latest", bak.AllItems()[1].Content)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRestoreRequiresFileBackend(t *testing.T) {
	dir := isolateEnv(t)
	_, err := run(t, "--storage", "memory", "--dir", dir, "restore")
	require.Error(t, err)
}

func TestInvalidBackendFails(t *testing.T) {
	dir := isolateEnv(t)
	_, err := run(t, "--storage", "redis", "--dir", dir, "ls")
	require.Error(t, err)
}
