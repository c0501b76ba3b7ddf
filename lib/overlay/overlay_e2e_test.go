package overlay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestMountOverlayRestoresChildMount is an E2E test verifying that
// MountOverlay preserves a child mount nested under the overlaid root.
//
// This test requires CAP_SYS_ADMIN to mount overlayfs and bind mounts, so
// it is skipped unless running as root.
//
// To run manually:
//
//	sudo go test -v -run TestMountOverlayRestoresChildMount ./lib/overlay/...
func TestMountOverlayRestoresChildMount(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("requires root to mount overlayfs")
	}

	root := t.TempDir()
	stockRoot := filepath.Join(root, "stock", "system")
	childDir := filepath.Join(stockRoot, "vendor")
	require.NoError(t, os.MkdirAll(childDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(childDir, "marker"), []byte("original"), 0644))

	// Give /system/vendor its own bind mount so it shows up as a distinct
	// entry in mountinfo, the way a real child partition mount would.
	require.NoError(t, unix.Mount(childDir, childDir, "", unix.MS_BIND, ""))
	defer unix.Unmount(childDir, unix.MNT_DETACH)

	moduleSystem := filepath.Join(root, "module", "system")
	require.NoError(t, os.MkdirAll(moduleSystem, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(moduleSystem, "new-file"), []byte("from module"), 0644))

	ctx := context.Background()
	err := MountOverlay(ctx, stockRoot, []string{moduleSystem}, "", "", true)
	require.NoError(t, err)
	defer unix.Unmount(stockRoot, unix.MNT_DETACH)

	// The module's new file must be visible through the overlay.
	require.FileExists(t, filepath.Join(stockRoot, "new-file"))

	// The restored child mount must still show the original marker.
	content, err := os.ReadFile(filepath.Join(stockRoot, "vendor", "marker"))
	require.NoError(t, err)
	require.Equal(t, "original", string(content))
}
