package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("oval.svg", squareSVG)
	write("Arch.SVG", `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1 1"></svg>`)
	write("notes.svg", "just some text")
	write("readme.txt", squareSVG)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.svg"), 0o755))

	entries, err := List(dir)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Arch.SVG", "oval.svg"}, names)
	assert.Equal(t, filepath.Join(dir, "oval.svg"), entries[1].Path)
}

func TestListMissingDirectory(t *testing.T) {
	entries, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
