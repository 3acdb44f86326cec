package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsurePrivateDir_RelativeToCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsurePrivateDir(".cashcare")
	require.NoError(t, err)

	want := filepath.Join(tmp, ".cashcare")
	resolved, err := filepath.EvalSymlinks(filepath.Dir(got))
	require.NoError(t, err)
	wantDir, err := filepath.EvalSymlinks(tmp)
	require.NoError(t, err)
	require.Equal(t, wantDir, resolved)
	require.Equal(t, filepath.Base(want), filepath.Base(got))

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Zero(t, fi.Mode().Perm()&0o077, "no group or other access")
	}
}

func TestEnsurePrivateDir_AbsoluteAndIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsurePrivateDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, first)

	second, err := EnsurePrivateDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsurePrivateDir_FileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := EnsurePrivateDir(path)
	require.Error(t, err)
}
