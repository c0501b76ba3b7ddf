// Package overlay drives the OverlayFS kernel mount: the modern
// fsopen/fsconfig/fsmount/move_mount protocol with a legacy mount(2)
// fallback, plus child-mount restoration for a partition root that has
// nested mounts beneath it.
package overlay

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/meta-hybrid/hybridmount/lib/defs"
	"github.com/meta-hybrid/hybridmount/lib/logger"
)

// UnmountableSink receives the destination path of every successful mount
// unless disableUmount was set, so an out-of-process collaborator can later
// request a clean unmount. The default is a no-op; SetUnmountableSink wires
// in the real side channel.
var UnmountableSink func(path string) = func(string) {}

// SetUnmountableSink installs the out-of-band unmountable-path emitter.
func SetUnmountableSink(sink func(path string)) {
	if sink == nil {
		sink = func(string) {}
	}
	UnmountableSink = sink
}

// MountOverlayfs constructs an OverlayFS mount whose effective lowerdir
// list is lowerDirs followed by lowest, joined by ":". It tries the modern
// fs-config protocol first and falls back to the legacy mount(2) syscall
// on any failure.
func MountOverlayfs(ctx context.Context, lowerDirs []string, lowest, upperdir, workdir, dest string, disableUmount bool) error {
	log := logger.FromContext(ctx)

	all := append(append([]string{}, lowerDirs...), lowest)
	lowerdirConfig := strings.Join(all, ":")

	if upperdir != "" && !exists(upperdir) {
		upperdir = ""
	}
	if workdir != "" && !exists(workdir) {
		workdir = ""
	}
	if upperdir == "" || workdir == "" {
		upperdir, workdir = "", ""
	}

	log.Debug("mount overlayfs", "dest", dest, "lowerdir", lowerdirConfig, "upperdir", upperdir, "workdir", workdir)

	if err := mountOverlayModern(lowerdirConfig, upperdir, workdir, dest); err != nil {
		log.Warn("fsopen mount failed, falling back to legacy mount", "dest", dest, "error", err)
		if err := mountOverlayLegacy(lowerdirConfig, upperdir, workdir, dest); err != nil {
			return fmt.Errorf("mount overlayfs on %s: %w", dest, err)
		}
	}

	if !disableUmount {
		UnmountableSink(dest)
	}
	return nil
}

func mountOverlayModern(lowerdirConfig, upperdir, workdir, dest string) error {
	fd, err := unix.Fsopen("overlay", unix.FSOPEN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("fsopen: %w", err)
	}
	defer unix.Close(fd)

	if err := unix.FsconfigSetString(fd, "lowerdir", lowerdirConfig); err != nil {
		return fmt.Errorf("fsconfig lowerdir: %w", err)
	}
	if upperdir != "" && workdir != "" {
		if err := unix.FsconfigSetString(fd, "upperdir", upperdir); err != nil {
			return fmt.Errorf("fsconfig upperdir: %w", err)
		}
		if err := unix.FsconfigSetString(fd, "workdir", workdir); err != nil {
			return fmt.Errorf("fsconfig workdir: %w", err)
		}
	}
	if err := unix.FsconfigSetString(fd, "source", defs.OverlaySource); err != nil {
		return fmt.Errorf("fsconfig source: %w", err)
	}
	if err := unix.FsconfigCreate(fd); err != nil {
		return fmt.Errorf("fsconfig create: %w", err)
	}

	mountFd, err := unix.Fsmount(fd, unix.FSMOUNT_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("fsmount: %w", err)
	}
	defer unix.Close(mountFd)

	if err := unix.MoveMount(mountFd, "", unix.AT_FDCWD, dest, unix.MOVE_MOUNT_F_EMPTY_PATH); err != nil {
		return fmt.Errorf("move_mount: %w", err)
	}
	return nil
}

func mountOverlayLegacy(lowerdirConfig, upperdir, workdir, dest string) error {
	data := "lowerdir=" + lowerdirConfig
	if upperdir != "" && workdir != "" {
		data += ",upperdir=" + upperdir + ",workdir=" + workdir
	}
	if err := unix.Mount(defs.OverlaySource, dest, "overlay", 0, data); err != nil {
		return fmt.Errorf("mount(2): %w", err)
	}
	return nil
}

// BindMount performs a recursive, detached, close-on-exec clone of from
// onto to via open_tree then move_mount.
func BindMount(ctx context.Context, from, to string, disableUmount bool) error {
	log := logger.FromContext(ctx)
	log.Debug("bind mount", "from", from, "to", to)

	treeFd, err := unix.OpenTree(unix.AT_FDCWD, from, unix.OPEN_TREE_CLOEXEC|unix.OPEN_TREE_CLONE|unix.AT_RECURSIVE)
	if err != nil {
		return fmt.Errorf("open_tree %s: %w", from, err)
	}
	defer unix.Close(treeFd)

	if err := unix.MoveMount(treeFd, "", unix.AT_FDCWD, to, unix.MOVE_MOUNT_F_EMPTY_PATH); err != nil {
		return fmt.Errorf("move_mount %s -> %s: %w", from, to, err)
	}

	if !disableUmount {
		UnmountableSink(to)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
