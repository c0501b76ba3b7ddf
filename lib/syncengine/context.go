package syncengine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/meta-hybrid/hybridmount/lib/selabel"
)

// repairContextTree walks partRoot (a built-in partition subtree under a
// freshly synced module) with an explicit work stack. For each entry, if
// the corresponding real filesystem path exists, its SELinux context is
// copied onto the staging entry. A missing real path leaves the label
// untouched (an observed behavior of the original implementation,
// preserved here rather than treated as an error).
func repairContextTree(moduleRoot, partRoot string) error {
	stack := []string{partRoot}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, err := os.Lstat(cur); err != nil {
			continue
		}

		relative := strings.TrimPrefix(strings.TrimPrefix(cur, moduleRoot), string(filepath.Separator))
		systemPath := filepath.Join("/", relative)

		if _, err := os.Lstat(systemPath); err == nil {
			_ = selabel.Copy(systemPath, cur)
		}

		if info, err := os.Lstat(cur); err == nil && info.IsDir() {
			entries, err := os.ReadDir(cur)
			if err != nil {
				continue
			}
			for _, e := range entries {
				stack = append(stack, filepath.Join(cur, e.Name()))
			}
		}
	}
	return nil
}
