package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectories(t *testing.T) {
	tmp := t.TempDir()

	want := filepath.Join(tmp, "public", "uploads", "thumbnails")
	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_ExistingDirectoryIsNoop(t *testing.T) {
	tmp := t.TempDir()

	first, err := EnsureDir(tmp)
	require.NoError(t, err)
	second, err := EnsureDir(tmp)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
