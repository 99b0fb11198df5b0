package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/areamail-cli/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFile_ReplacesContent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, utils.SafeWriteFile(p, []byte("one")))
	require.NoError(t, utils.SafeWriteFile(p, []byte("two")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	first := utils.UniquePath(dir, "west", ".eml", nil)
	assert.Equal(t, filepath.Join(dir, "west.eml"), first)
	require.NoError(t, os.WriteFile(first, nil, 0o644))

	second := utils.UniquePath(dir, "west", ".eml", nil)
	assert.Equal(t, filepath.Join(dir, "west__2.eml"), second)

	claimed := map[string]bool{second: true}
	third := utils.UniquePath(dir, "west", ".eml", func(p string) bool { return claimed[p] })
	assert.Equal(t, filepath.Join(dir, "west__3.eml"), third)
}
