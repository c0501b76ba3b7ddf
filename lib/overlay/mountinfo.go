package overlay

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// mountPointsUnder returns the sorted, de-duplicated set of mountpoints
// from /proc/self/mountinfo that are strictly nested under root (root
// itself is excluded).
func mountPointsUnder(root string) ([]string, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return nil, fmt.Errorf("open mountinfo: %w", err)
	}
	defer f.Close()

	return parseMountPointsUnder(f, root)
}

// parseMountPointsUnder parses mountinfo-formatted lines, e.g.:
//
//	36 35 98:0 /mnt1 /mnt2 rw,noatime master:1 - ext3 /dev/root rw,errors=continue
//
// field 5 (0-indexed 4) is the mount point; fields from the optional
// "- fstype ..." separator onward are ignored here.
func parseMountPointsUnder(r io.Reader, root string) ([]string, error) {
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	prefix := strings.TrimRight(root, "/") + "/"
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		mountPoint := fields[4]

		if mountPoint == root {
			continue
		}
		if !strings.HasPrefix(mountPoint, prefix) {
			continue
		}
		seen[mountPoint] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan mountinfo: %w", err)
	}

	out := make([]string, 0, len(seen))
	for mp := range seen {
		out = append(out, mp)
	}
	sort.Strings(out)
	return out, nil
}
