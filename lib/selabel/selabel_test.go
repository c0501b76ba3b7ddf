package selabel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCopyRoundTrip is gated on root, since setting security.selinux
// requires CAP_SYS_ADMIN on most kernels and fails with EPERM otherwise.
//
// To run manually:
//
//	sudo go test -v -run TestCopyRoundTrip ./lib/selabel/...
func TestCopyRoundTrip(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("requires root to set security.selinux xattr")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("y"), 0644))

	const ctx = "u:object_r:system_file:s0"
	if err := Set(src, ctx); err != nil {
		t.Skipf("filesystem does not support security.selinux xattr: %v", err)
	}

	require.NoError(t, Copy(src, dst))

	got, ok, err := Get(dst)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ctx, got)
}

func TestGetMissingXattr(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0644))

	_, ok, err := Get(f)
	require.NoError(t, err)
	_ = ok
}
