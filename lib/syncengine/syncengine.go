// Package syncengine reconciles the staging area with the current module
// inventory: pruning orphans, mirroring changed modules, and repairing
// SELinux contexts on freshly copied content.
package syncengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/meta-hybrid/hybridmount/lib/defs"
	"github.com/meta-hybrid/hybridmount/lib/inventory"
	"github.com/meta-hybrid/hybridmount/lib/logger"
)

// tracer is scoped by SetTracer during application initialization; a
// no-op default keeps Sync usable without an OTel provider.
var tracer trace.Tracer = otel.Tracer("hybridmount/syncengine")

// SetTracer overrides the tracer used to wrap the sync pass.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// Sync brings stagingBase into agreement with modules: prune orphans, then
// reconcile each enabled module. Per-module failures are logged and do not
// abort the run; only a failure enumerating stagingBase is fatal.
// maxStagingBytes caps total staging disk usage; 0 means unlimited, and
// once the cap is reached remaining modules are skipped rather than synced.
func Sync(ctx context.Context, modules []inventory.Module, stagingBase string, maxStagingBytes int64) error {
	ctx, span := tracer.Start(ctx, "hybridmount.sync")
	defer span.End()

	log := logger.FromContext(ctx)
	log.Info("starting sync", "staging", stagingBase, "modules", len(modules))

	if err := prune(ctx, modules, stagingBase); err != nil {
		return fmt.Errorf("prune staging base: %w", err)
	}

	for _, m := range modules {
		dst := filepath.Join(stagingBase, m.ID)

		if !hasContent(m.SourcePath) {
			log.Debug("skipping empty module", "id", m.ID)
			continue
		}

		if !shouldSync(m.SourcePath, dst) {
			log.Debug("module up to date, skipping", "id", m.ID)
			continue
		}

		if maxStagingBytes > 0 {
			used, err := dirSizeBytes(stagingBase)
			if err != nil {
				log.Warn("failed to measure staging usage", "error", err)
			} else if used >= maxStagingBytes {
				log.Warn("staging size cap reached, skipping module sync",
					"id", m.ID, "used_bytes", used, "max_bytes", maxStagingBytes)
				continue
			}
		}

		log.Info("syncing module", "id", m.ID)
		if err := os.RemoveAll(dst); err != nil {
			log.Warn("failed to clean staging dir before sync", "id", m.ID, "error", err)
		}
		if err := copyTree(m.SourcePath, dst); err != nil {
			log.Error("failed to sync module", "id", m.ID, "error", err)
			continue
		}
		syncMetrics.recordSynced(ctx)

		if err := repairModuleContexts(dst); err != nil {
			log.Warn("context repair failed for module", "id", m.ID, "error", err)
		}
	}

	return nil
}

// prune removes every top-level staging entry that is neither reserved nor
// the id of an enabled module.
func prune(ctx context.Context, modules []inventory.Module, stagingBase string) error {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(stagingBase)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	active := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		active[m.ID] = struct{}{}
	}

	for _, e := range entries {
		id := e.Name()
		if defs.Reserved(id) {
			continue
		}
		if _, ok := active[id]; ok {
			continue
		}

		path := filepath.Join(stagingBase, id)
		log.Info("pruning orphaned staging entry", "id", id)
		if err := os.RemoveAll(path); err != nil {
			log.Warn("failed to remove orphaned staging entry", "id", id, "error", err)
			continue
		}
		syncMetrics.recordPruned(ctx)
	}
	return nil
}

// dirSizeBytes sums the apparent size of every non-directory entry under
// root (symlinks count by their own lstat size),
// using an explicit work stack (matching dirHasFiles' walk style).
func dirSizeBytes(root string) (int64, error) {
	var total int64
	stack := []string{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		for _, e := range entries {
			p := filepath.Join(cur, e.Name())
			if e.IsDir() {
				stack = append(stack, p)
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			total += info.Size()
		}
	}
	return total, nil
}

// hasContent reports whether any built-in partition subdirectory under
// sourcePath exists and recursively contains at least one non-directory
// entry.
func hasContent(sourcePath string) bool {
	for _, p := range defs.BuiltinPartitions {
		partRoot := filepath.Join(sourcePath, p)
		if info, err := os.Lstat(partRoot); err == nil && info.IsDir() {
			if dirHasFiles(partRoot) {
				return true
			}
		}
	}
	return false
}

// dirHasFiles walks dir with an explicit work stack (bounding stack depth
// on deep module trees) looking for any non-directory entry.
func dirHasFiles(dir string) bool {
	stack := []string{dir}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				stack = append(stack, filepath.Join(cur, e.Name()))
				continue
			}
			return true
		}
	}
	return false
}

// shouldSync implements the module.prop-diff heuristic: resync iff dst is
// missing, either module.prop is missing, or their byte contents differ.
// Any comparison I/O error is treated as "must sync."
func shouldSync(src, dst string) bool {
	if _, err := os.Stat(dst); err != nil {
		return true
	}

	srcProp := filepath.Join(src, defs.ModulePropFile)
	dstProp := filepath.Join(dst, defs.ModulePropFile)

	srcBytes, err := os.ReadFile(srcProp)
	if err != nil {
		return true
	}
	dstBytes, err := os.ReadFile(dstProp)
	if err != nil {
		return true
	}
	return string(srcBytes) != string(dstBytes)
}

// repairModuleContexts mirrors SELinux labels from the real filesystem
// onto every built-in partition subtree freshly synced under moduleRoot.
func repairModuleContexts(moduleRoot string) error {
	for _, p := range defs.BuiltinPartitions {
		partRoot := filepath.Join(moduleRoot, p)
		if info, err := os.Lstat(partRoot); err != nil || !info.IsDir() {
			continue
		}
		if err := repairContextTree(moduleRoot, partRoot); err != nil {
			return fmt.Errorf("repair %s: %w", p, err)
		}
	}
	return nil
}
