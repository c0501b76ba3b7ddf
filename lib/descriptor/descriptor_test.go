package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleProp = "name=Busybox\nversion=1.0\nauthor=someone\ndescription=old\nextra=kept\n"

func TestReadProp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.prop")
	require.NoError(t, os.WriteFile(path, []byte(sampleProp), 0644))

	v, ok := ReadProp(path, "name")
	require.True(t, ok)
	require.Equal(t, "Busybox", v)

	_, ok = ReadProp(path, "missing")
	require.False(t, ok)

	_, ok = ReadProp(filepath.Join(dir, "nope"), "name")
	require.False(t, ok)
}

func TestRewriteDescriptionPreservesOtherLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.prop")
	require.NoError(t, os.WriteFile(path, []byte(sampleProp), 0644))

	require.NoError(t, RewriteDescription(context.Background(), path, StorageTmpfs, false, 3, 1))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "name=Busybox\nversion=1.0\nauthor=someone\ndescription=😋 运行中喵～ (Tmpfs) 🐾 | Overlay: 3 | Magic: 1\nextra=kept\n"
	require.Equal(t, want, string(got))
}

func TestRewriteDescriptionNukeSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.prop")
	require.NoError(t, os.WriteFile(path, []byte(sampleProp), 0644))

	require.NoError(t, RewriteDescription(context.Background(), path, StorageExt4, true, 0, 0))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), "(Ext4) 💿 | Overlay: 0 | Magic: 0 | 肉垫: 开启 ✨")
}

func TestRewriteDescriptionIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.prop")
	require.NoError(t, os.WriteFile(path, []byte(sampleProp), 0644))

	require.NoError(t, RewriteDescription(context.Background(), path, StorageTmpfs, false, 2, 0))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, RewriteDescription(context.Background(), path, StorageTmpfs, false, 2, 0))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRewriteDescriptionMissingFileWarnsOnly(t *testing.T) {
	dir := t.TempDir()
	err := RewriteDescription(context.Background(), filepath.Join(dir, "missing.prop"), StorageTmpfs, false, 0, 0)
	require.NoError(t, err)
}
