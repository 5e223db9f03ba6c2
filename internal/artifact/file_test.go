package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileArtifact_ReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0644))

	f, err := NewFileArtifact(Left, path)
	require.NoError(t, err)

	assert.True(t, f.IsFile())
	assert.False(t, f.IsDirectory())
	assert.Equal(t, Left, f.Revision())
	assert.Equal(t, "input.go", f.Name())

	data, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))
}

func TestFileArtifact_Missing(t *testing.T) {
	_, err := NewFileArtifact(Left, filepath.Join(t.TempDir(), "nope.go"))
	assert.ErrorContains(t, err, "not found")
}

func TestFileArtifact_ListChildrenSorted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("a"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	d, err := NewFileArtifact(Base, dir)
	require.NoError(t, err)
	require.True(t, d.IsDirectory())

	children, err := d.ListChildren()
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "a.go", children[0].Name())
	assert.Equal(t, "b.go", children[1].Name())
	assert.Equal(t, "sub", children[2].Name())
	assert.True(t, children[2].IsDirectory())
}

func TestOutputFileArtifact_WriteCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileArtifact(filepath.Join(dir, "nested", "out.go"), false)

	require.NoError(t, out.Write([]byte("merged\n")))

	data, err := os.ReadFile(filepath.Join(dir, "nested", "out.go"))
	require.NoError(t, err)
	assert.Equal(t, "merged\n", string(data))
}
