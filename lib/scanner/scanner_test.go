package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mkModule(t *testing.T, root, id string, markers ...string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, m := range markers {
		require.NoError(t, os.WriteFile(filepath.Join(dir, m), nil, 0644))
	}
	return dir
}

func TestScanFiltersMarkersAndReserved(t *testing.T) {
	root := t.TempDir()
	mkModule(t, root, "busybox")
	mkModule(t, root, "disabled-mod", "disable")
	mkModule(t, root, "removed-mod", "remove")
	mkModule(t, root, "skip-mod", "skip_mount")
	mkModule(t, root, "meta-hybrid")
	mkModule(t, root, "lost+found")

	entries, err := Scan(context.Background(), root, t.TempDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "busybox", entries[0].ID)
}

func TestScanMergesMntFallbackWithoutOverride(t *testing.T) {
	metaDir := t.TempDir()
	mntDir := t.TempDir()
	mkModule(t, metaDir, "busybox")
	mkModule(t, mntDir, "busybox")
	mkModule(t, mntDir, "extra")

	entries, err := Scan(context.Background(), metaDir, mntDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]Entry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	require.Equal(t, filepath.Join(metaDir, "busybox"), byID["busybox"].SourcePath)
	require.Equal(t, filepath.Join(mntDir, "extra"), byID["extra"].SourcePath)
}

func TestScanMntEntryWithMarkerIsStillMerged(t *testing.T) {
	metaDir := t.TempDir()
	mntDir := t.TempDir()
	mkModule(t, mntDir, "disabled-in-mnt", "disable")

	entries, err := Scan(context.Background(), metaDir, mntDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "disabled-in-mnt", entries[0].ID)
	require.Equal(t, filepath.Join(mntDir, "disabled-in-mnt"), entries[0].SourcePath)
}

func TestScanMissingDirYieldsEmpty(t *testing.T) {
	entries, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "nope2"))
	require.NoError(t, err)
	require.Empty(t, entries)
}
