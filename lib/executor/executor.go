// Package executor orchestrates the two-pass mount dispatch: OverlayFS
// first, with per-partition fallback to the magic-mount collaborator on
// failure.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nrednav/cuid2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/meta-hybrid/hybridmount/lib/hmconfig"
	"github.com/meta-hybrid/hybridmount/lib/inventory"
	"github.com/meta-hybrid/hybridmount/lib/logger"
	"github.com/meta-hybrid/hybridmount/lib/overlay"
	"github.com/meta-hybrid/hybridmount/lib/paths"
	"github.com/meta-hybrid/hybridmount/lib/planner"
)

// MagicMounter is the opaque magic-mount collaborator contract: tempDir,
// modulePaths in id-ascending order, the configured mount source, and the
// extra-partitions list.
type MagicMounter interface {
	Mount(ctx context.Context, tempDir string, modulePaths []string, mountSource string, extraPartitions []string) error
}

// Result reports the final overlay/magic module counts after any runtime
// demotion, for the descriptor writer.
type Result struct {
	OverlayCount int
	MagicCount   int
}

// mountOverlay is swapped out in tests to avoid requiring CAP_SYS_ADMIN.
var mountOverlay = overlay.MountOverlay

// tracer is scoped by SetTracer during application initialization; a
// no-op default keeps Run usable without an OTel provider.
var tracer trace.Tracer = otel.Tracer("hybridmount/executor")

// SetTracer overrides the tracer used to wrap each mount pass.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// Run executes plan against the real filesystem: Pass 1 mounts OverlayFS
// for every non-force-magic partition, demoting to magic on failure; Pass
// 2 hands all magic-routed modules to mounter.
func Run(ctx context.Context, plan planner.MountPlan, cfg *hmconfig.Config, mounter MagicMounter) (Result, error) {
	log := logger.FromContext(ctx)

	magicPaths := make(map[string]struct{}, len(plan.MagicModulePaths))
	for _, p := range plan.MagicModulePaths {
		magicPaths[p] = struct{}{}
	}
	overlayIDs := make(map[string]struct{}, len(plan.OverlayModuleIDs))
	for _, id := range plan.OverlayModuleIDs {
		overlayIDs[id] = struct{}{}
	}

	// Pass 1 — Overlay.
	overlayCtx, overlaySpan := tracer.Start(ctx, "hybridmount.mount.overlay")
	for _, op := range plan.OverlayOps {
		layers := reverseStrings(op.Lowerdirs)
		log.Info("mounting partition", "target", op.Target, "mode", "overlay", "layers", len(layers))

		err := mountOverlay(overlayCtx, op.Target, layers, "", "", false)
		execMetrics.recordOverlay(overlayCtx, op.Target, err == nil)
		if err != nil {
			log.Error("overlay mount failed, demoting partition to magic", "target", op.Target, "error", err)
			for _, layer := range op.Lowerdirs {
				id := moduleIDFromLayer(layer)
				delete(overlayIDs, id)
				magicPaths[moduleStagingRoot(layer)] = struct{}{}
			}
		}
	}
	overlaySpan.End()

	result := Result{OverlayCount: len(overlayIDs), MagicCount: len(magicPaths)}

	if len(magicPaths) == 0 {
		return result, nil
	}

	// Pass 2 — Magic.
	magicCtx, magicSpan := tracer.Start(ctx, "hybridmount.mount.magic")
	defer magicSpan.End()

	tempDir, err := resolveTempDir(cfg)
	if err != nil {
		return result, fmt.Errorf("resolve temp dir: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return result, fmt.Errorf("create temp dir %s: %w", tempDir, err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Warn("failed to clean up temp dir", "dir", tempDir, "error", err)
		}
	}()

	magicModules := make([]inventory.Module, 0, len(magicPaths))
	for p := range magicPaths {
		magicModules = append(magicModules, inventory.Module{ID: filepath.Base(p), SourcePath: p})
	}
	inventory.SortIDAscending(magicModules)
	modulePaths := make([]string, len(magicModules))
	for i, m := range magicModules {
		modulePaths[i] = m.SourcePath
	}

	log.Info("starting magic mount pass", "modules", len(modulePaths))
	mountErr := mounter.Mount(magicCtx, tempDir, modulePaths, cfg.MagicMountSource, cfg.ExtraPartitions)
	execMetrics.recordMagic(magicCtx, len(modulePaths), mountErr == nil)
	if mountErr != nil {
		log.Error("magic mount failed", "error", mountErr)
	}

	return result, nil
}

// resolveTempDir honors cfg.TempDirOverride, else selects a fresh unique
// directory under the engine's temp root.
func resolveTempDir(cfg *hmconfig.Config) (string, error) {
	if cfg.TempDirOverride != "" {
		return cfg.TempDirOverride, nil
	}
	return paths.New(cfg.BaseDir).TempDir(cuid2.Generate()), nil
}

func reverseStrings(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// moduleIDFromLayer extracts the module id from a staging layer path of the
// form stagingRoot/<id>/<partition>.
func moduleIDFromLayer(layer string) string {
	return filepath.Base(filepath.Dir(layer))
}

func moduleStagingRoot(layer string) string {
	return filepath.Dir(layer)
}
