// Package descriptor reads and rewrites module.prop-style descriptor
// files: line-based key=value files with a conventional set of keys
// (name, version, author, description).
package descriptor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meta-hybrid/hybridmount/lib/logger"
)

// ReadProp returns the value of key in the descriptor at path, scanning
// line by line for "key=value". Returns ok=false if the file is missing,
// unreadable, or the key is absent.
func ReadProp(path, key string) (value string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	prefix := key + "="
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, prefix) {
			return line[len(prefix):], true
		}
	}
	return "", false
}

// StorageMode names the backing store used for the staging area.
type StorageMode string

const (
	StorageTmpfs StorageMode = "tmpfs"
	StorageExt4  StorageMode = "ext4"
)

// RewriteDescription rewrites the first description= line of the module.prop
// file at path to the literal status string, leaving every other line
// untouched and in order. A missing file logs a warning, not an error.
// Idempotent: repeated calls with the same inputs yield identical bytes.
func RewriteDescription(ctx context.Context, path string, mode StorageMode, nukeActive bool, overlayCount, magicCount int) error {
	log := logger.FromContext(ctx)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("module.prop not found, skipping description update", "path", path)
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	newDesc := formatDescription(mode, nukeActive, overlayCount, magicCount)

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "description=") {
			lines[i] = newDesc
			break
		}
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info("updated module.prop description")
	return nil
}

func formatDescription(mode StorageMode, nukeActive bool, overlayCount, magicCount int) string {
	modeStr := "Ext4"
	statusEmoji := "💿"
	if mode == StorageTmpfs {
		modeStr = "Tmpfs"
		statusEmoji = "🐾"
	}

	nukeStr := ""
	if nukeActive {
		nukeStr = " | 肉垫: 开启 ✨"
	}

	return fmt.Sprintf("description=😋 运行中喵～ (%s) %s | Overlay: %d | Magic: %d%s",
		modeStr, statusEmoji, overlayCount, magicCount, nukeStr)
}
