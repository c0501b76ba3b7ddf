package syncengine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/sys/unix"
)

// copyTree recursively copies src to dst, preserving symlinks, device
// nodes, mode bits, ownership, and xattrs where possible. Walks with an
// explicit work stack rather than stack recursion. Destination paths are
// resolved with securejoin against dst so a module planting a symlink
// component cannot make a later entry write outside the module's staging
// directory.
func copyTree(src, dst string) error {
	type job struct {
		src string
		rel string
	}
	stack := []job{{src, ""}}

	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		jdst, err := securejoin.SecureJoin(dst, j.rel)
		if err != nil {
			return fmt.Errorf("resolve staging path for %s: %w", j.rel, err)
		}

		info, err := os.Lstat(j.src)
		if err != nil {
			return fmt.Errorf("lstat %s: %w", j.src, err)
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			if err := copySymlink(j.src, jdst); err != nil {
				return err
			}
		case info.IsDir():
			if err := os.MkdirAll(jdst, info.Mode().Perm()); err != nil {
				return fmt.Errorf("mkdir %s: %w", jdst, err)
			}
			if err := copyOwnerAndXattrs(j.src, jdst); err != nil {
				return err
			}
			entries, err := os.ReadDir(j.src)
			if err != nil {
				return fmt.Errorf("readdir %s: %w", j.src, err)
			}
			for _, e := range entries {
				stack = append(stack, job{filepath.Join(j.src, e.Name()), filepath.Join(j.rel, e.Name())})
			}
		case info.Mode()&(os.ModeDevice|os.ModeCharDevice) != 0:
			if err := copyDevice(j.src, jdst, info); err != nil {
				return err
			}
		default:
			if err := copyRegularFile(j.src, jdst, info); err != nil {
				return err
			}
		}
	}
	return nil
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("readlink %s: %w", src, err)
	}
	_ = os.Remove(dst)
	if err := os.Symlink(target, dst); err != nil {
		return fmt.Errorf("symlink %s: %w", dst, err)
	}
	return nil
}

func copyDevice(src, dst string, info os.FileInfo) error {
	stat, ok := info.Sys().(*unix.Stat_t)
	if !ok {
		return fmt.Errorf("stat device %s: unsupported platform stat", src)
	}
	_ = os.Remove(dst)
	if err := unix.Mknod(dst, uint32(stat.Mode), int(stat.Rdev)); err != nil {
		return fmt.Errorf("mknod %s: %w", dst, err)
	}
	return copyOwnerAndXattrs(src, dst)
}

func copyRegularFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return copyOwnerAndXattrs(src, dst)
}

// copyOwnerAndXattrs best-effort preserves uid/gid and xattrs. Failures are
// swallowed: a non-root invocation commonly cannot chown, and not every
// filesystem supports xattrs.
func copyOwnerAndXattrs(src, dst string) error {
	if stat, err := os.Lstat(src); err == nil {
		if sys, ok := stat.Sys().(*unix.Stat_t); ok {
			_ = unix.Lchown(dst, int(sys.Uid), int(sys.Gid))
		}
	}

	names, err := unix.Llistxattr(src, nil)
	if err != nil || names <= 0 {
		return nil
	}
	buf := make([]byte, names)
	n, err := unix.Llistxattr(src, buf)
	if err != nil {
		return nil
	}
	for _, name := range splitXattrNames(buf[:n]) {
		size, err := unix.Lgetxattr(src, name, nil)
		if err != nil || size <= 0 {
			continue
		}
		val := make([]byte, size)
		if _, err := unix.Lgetxattr(src, name, val); err != nil {
			continue
		}
		_ = unix.Lsetxattr(dst, name, val, 0)
	}
	return nil
}

// splitXattrNames splits a NUL-separated xattr name list as returned by
// listxattr(2).
func splitXattrNames(buf []byte) []string {
	var names []string
	start := 0
	for i, b := range buf {
		if b == 0 {
			if i > start {
				names = append(names, string(buf[start:i]))
			}
			start = i + 1
		}
	}
	return names
}
