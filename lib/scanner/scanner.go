// Package scanner walks the module metadata directory and the auxiliary
// mnt fallback directory to produce the ordered list of enabled module ids
// and their source paths.
package scanner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/meta-hybrid/hybridmount/lib/defs"
	"github.com/meta-hybrid/hybridmount/lib/logger"
)

// Entry is a discovered, enabled module: its id and on-disk source.
type Entry struct {
	ID         string
	SourcePath string
}

// Scan walks metadataDir for enabled modules, then merges mntDir entries
// whose id was not already registered from metadataDir. A missing
// directory yields an empty slice for that directory without error.
func Scan(ctx context.Context, metadataDir, mntDir string) ([]Entry, error) {
	log := logger.FromContext(ctx)

	seen := make(map[string]struct{})
	var entries []Entry

	metaEntries, err := scanDir(ctx, metadataDir, true)
	if err != nil {
		return nil, err
	}
	for _, e := range metaEntries {
		seen[e.ID] = struct{}{}
		entries = append(entries, e)
	}

	mntEntries, err := scanDir(ctx, mntDir, false)
	if err != nil {
		log.Warn("scan mnt fallback dir failed", "dir", mntDir, "error", err)
		return entries, nil
	}
	for _, e := range mntEntries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		entries = append(entries, e)
	}

	return entries, nil
}

// scanDir lists the non-reserved subdirectories of dir. checkMarkers gates
// the disable/remove/skip_mount marker check: the metadata-dir pass
// enforces it, but the mnt-fallback pass does not (spec.md §4.1; the mnt
// merge only checks directory-ness and id registration, never markers —
// an mnt-only module with a marker file still merges in).
func scanDir(ctx context.Context, dir string, checkMarkers bool) ([]Entry, error) {
	log := logger.FromContext(ctx)

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for _, de := range dirEntries {
		id := de.Name()
		if defs.Reserved(id) {
			continue
		}
		if !de.IsDir() {
			continue
		}
		srcPath := filepath.Join(dir, id)
		if checkMarkers {
			enabled, err := isEnabled(srcPath)
			if err != nil {
				log.Warn("skip module entry, stat error", "id", id, "error", err)
				continue
			}
			if !enabled {
				continue
			}
		}
		out = append(out, Entry{ID: id, SourcePath: srcPath})
	}
	return out, nil
}

// isEnabled reports whether srcPath lacks all three marker files.
func isEnabled(srcPath string) (bool, error) {
	for _, marker := range []string{defs.DisableFileName, defs.RemoveFileName, defs.SkipMountFileName} {
		_, err := os.Stat(filepath.Join(srcPath, marker))
		if err == nil {
			return false, nil
		}
		if !os.IsNotExist(err) {
			return false, err
		}
	}
	return true, nil
}
