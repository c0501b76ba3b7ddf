// Package selabel copies SELinux security contexts between filesystem
// paths, used by the staging sync engine to keep mirrored module content
// labeled the way the real partition tree expects.
package selabel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const xattrName = "security.selinux"

// Get reads the SELinux context of path (not following symlinks). A missing
// xattr (unsupported/unlabeled filesystem) is reported as ok=false with a
// nil error, since that is the common case on non-SELinux test hosts.
func Get(path string) (ctx string, ok bool, err error) {
	buf := make([]byte, 256)
	n, err := unix.Lgetxattr(path, xattrName, buf)
	if err != nil {
		if err == unix.ENODATA || err == unix.ENOTSUP || err == unix.EOPNOTSUPP {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lgetxattr %s: %w", path, err)
	}
	return string(buf[:n]), true, nil
}

// Set applies ctx as the SELinux context of path (not following symlinks).
func Set(path, ctx string) error {
	if err := unix.Lsetxattr(path, xattrName, []byte(ctx), 0); err != nil {
		return fmt.Errorf("lsetxattr %s: %w", path, err)
	}
	return nil
}

// Copy reads the context from src and, if present, applies it to dst.
// Absence of a context on src is not an error: dst is left with whatever
// context it inherited on creation.
func Copy(src, dst string) error {
	ctx, ok, err := Get(src)
	if err != nil {
		return fmt.Errorf("read context from %s: %w", src, err)
	}
	if !ok {
		return nil
	}
	return Set(dst, ctx)
}
