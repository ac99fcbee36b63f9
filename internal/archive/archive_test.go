package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".go"))
	assert.True(t, Supported(".py"))
	assert.True(t, Supported(".pdf"))
	assert.True(t, Supported(".xlsx"))
	assert.False(t, Supported(".exe"))
	assert.False(t, Supported(".png"))
	assert.False(t, Supported(""))
}

func TestStage_ExtractsStructure(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"src/main.go":   "package main",
		"docs/guide.md": "# Guide",
		"top.txt":       "hello",
	})
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Stage(zipPath, dest))

	data, err := os.ReadFile(filepath.Join(dest, "src", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))
	assert.FileExists(t, filepath.Join(dest, "docs", "guide.md"))
	assert.FileExists(t, filepath.Join(dest, "top.txt"))
}

func TestStage_SkipsTraversalEntries(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"ok.txt":          "fine",
		"../escape.txt":   "evil",
		"../../deep.txt":  "evil",
		"a/../../out.txt": "evil",
	})
	base := t.TempDir()
	dest := filepath.Join(base, "inner", "out")

	require.NoError(t, Stage(zipPath, dest))

	assert.FileExists(t, filepath.Join(dest, "ok.txt"))
	assert.NoFileExists(t, filepath.Join(base, "inner", "escape.txt"))
	assert.NoFileExists(t, filepath.Join(base, "deep.txt"))
	assert.NoFileExists(t, filepath.Join(base, "inner", "out.txt"))
}

func TestStage_InvalidZip(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip at all"), 0o644))

	err := Stage(bad, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ZIP file")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.py":                  "print(1)",
		"src/app.js":               "app()",
		"README.md":                "# readme",
		"image.png":                "binary",
		"node_modules/lib.js":      "ignored",
		".git/config":              "ignored",
		"__pycache__/mod.pyc":      "ignored",
		"nested/venv/bin/activate": "ignored",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	entries, err := Discover(dir)
	require.NoError(t, err)

	rels := make([]string, 0, len(entries))
	for _, e := range entries {
		rels = append(rels, filepath.ToSlash(e.RelPath))
	}
	assert.ElementsMatch(t, []string{"main.py", "src/app.js", "README.md"}, rels)
}

func TestDiscover_CaseInsensitiveExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.PY"), []byte("print(1)"), 0o644))

	entries, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Main.PY", entries[0].RelPath)
}

func TestCleanup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staging")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "f.txt"), []byte("x"), 0o644))

	Cleanup(dir)
	assert.NoDirExists(t, dir)

	// Empty and already-gone paths are no-ops.
	Cleanup("")
	Cleanup(dir)
}
