package overlay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meta-hybrid/hybridmount/lib/logger"
)

// MountOverlay mounts a union over targetRoot (e.g. "/system") while
// preserving child mounts (e.g. "/system/vendor") that would otherwise be
// shadowed by a naive overlay on the parent.
func MountOverlay(ctx context.Context, targetRoot string, moduleRoots []string, workdir, upperdir string, disableUmount bool) error {
	log := logger.FromContext(ctx)
	log.Info("starting overlay mount", "target", targetRoot)

	prevDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get current directory: %w", err)
	}
	defer func() {
		if err := os.Chdir(prevDir); err != nil {
			log.Warn("failed to restore working directory", "dir", prevDir, "error", err)
		}
	}()

	if err := os.Chdir(targetRoot); err != nil {
		return fmt.Errorf("chdir to %s: %w", targetRoot, err)
	}
	const stockRoot = "."

	mountPoints, err := mountPointsUnder(targetRoot)
	if err != nil {
		return fmt.Errorf("get mountinfo: %w", err)
	}

	if err := MountOverlayfs(ctx, moduleRoots, targetRoot, upperdir, workdir, targetRoot, disableUmount); err != nil {
		return fmt.Errorf("mount overlayfs for root %s: %w", targetRoot, err)
	}

	for _, mp := range mountPoints {
		relative := strings.TrimPrefix(mp, targetRoot)
		stockChild := stockRoot + relative

		if !exists(stockChild) {
			continue
		}

		if err := mountOverlayChild(ctx, mp, relative, moduleRoots, stockChild, disableUmount); err != nil {
			log.Warn("failed to restore child mount", "mount_point", mp, "error", err)
		}
	}

	return nil
}

// mountOverlayChild restores visibility of a single child mount after the
// parent partition has been overlaid.
func mountOverlayChild(ctx context.Context, mountPoint, relative string, moduleRoots []string, stockChild string, disableUmount bool) error {
	log := logger.FromContext(ctx)

	relTrimmed := strings.TrimPrefix(relative, "/")

	modified := false
	for _, root := range moduleRoots {
		if exists(filepath.Join(root, relTrimmed)) {
			modified = true
			break
		}
	}

	if !modified {
		return BindMount(ctx, stockChild, mountPoint, disableUmount)
	}

	var lowerDirs []string
	for _, root := range moduleRoots {
		candidate := filepath.Join(root, relTrimmed)
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			// A file shadowing a directory is an invalid union; abort this
			// child with success (no mount, skip the collision).
			return nil
		}
		lowerDirs = append(lowerDirs, candidate)
	}

	if len(lowerDirs) == 0 {
		return nil
	}

	if err := MountOverlayfs(ctx, lowerDirs, stockChild, "", "", mountPoint, disableUmount); err != nil {
		log.Warn("failed to overlay child, falling back to bind mount", "mount_point", mountPoint, "error", err)
		return BindMount(ctx, stockChild, mountPoint, disableUmount)
	}
	return nil
}
