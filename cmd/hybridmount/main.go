package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meta-hybrid/hybridmount/lib/defs"
	"github.com/meta-hybrid/hybridmount/lib/descriptor"
	"github.com/meta-hybrid/hybridmount/lib/executor"
	"github.com/meta-hybrid/hybridmount/lib/inventory"
	"github.com/meta-hybrid/hybridmount/lib/planner"
	"github.com/meta-hybrid/hybridmount/lib/scanner"
	"github.com/meta-hybrid/hybridmount/lib/syncengine"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hybridmount:", err)
		os.Exit(1)
	}
}

func run() error {
	listOnly := flag.Bool("list", false, "print the module inventory as JSON and exit")
	flag.Parse()

	app, cleanup, err := initializeApp()
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer cleanup()

	logger := app.Logger
	cfg := app.Config
	ctx := app.Ctx

	if cfg.OtelEnabled {
		logger.Info("OpenTelemetry enabled", "endpoint", cfg.OtelEndpoint, "service", cfg.OtelServiceName)
	}

	// Wire OTel tracing/metrics into the pipeline packages. With OTel
	// disabled, MeterFor returns the global no-op meter, so the counters
	// record nothing.
	executor.SetTracer(app.Otel.TracerFor("executor"))
	syncengine.SetTracer(app.Otel.TracerFor("syncengine"))
	if execMetrics, err := executor.NewMetrics(app.Otel.MeterFor("executor")); err != nil {
		logger.Warn("failed to initialize executor metrics", "error", err)
	} else {
		executor.SetMetrics(execMetrics)
	}
	if syncMetrics, err := syncengine.NewMetrics(app.Otel.MeterFor("syncengine")); err != nil {
		logger.Warn("failed to initialize syncengine metrics", "error", err)
	} else {
		syncengine.SetMetrics(syncMetrics)
	}

	entries, err := scanner.Scan(ctx, cfg.MetadataDir, cfg.MntFallbackDir)
	if err != nil {
		return fmt.Errorf("scan modules: %w", err)
	}
	logger.Info("scan complete", "modules", len(entries))

	modes, err := inventory.LoadModes(cfg.ModuleModesFile)
	if err != nil {
		return fmt.Errorf("load module modes: %w", err)
	}
	modules := inventory.Build(entries, modes)

	if *listOnly {
		records := inventory.List(modules, cfg.MntFallbackDir)
		out, err := inventory.MarshalJSON(records)
		if err != nil {
			return fmt.Errorf("marshal module list: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	stagingRoot := app.Paths.StagingRoot()
	if cfg.StagingDir != "" {
		stagingRoot = cfg.StagingDir
	}

	maxStagingBytes, err := cfg.MaxStagingSizeBytes()
	if err != nil {
		return fmt.Errorf("parse staging size cap: %w", err)
	}
	if err := syncengine.Sync(ctx, modules, stagingRoot, maxStagingBytes); err != nil {
		return fmt.Errorf("sync staging area: %w", err)
	}

	inventory.SortIDDescending(modules)
	_, planSpan := app.Otel.TracerFor("planner").Start(ctx, "hybridmount.plan")
	plan := planner.Generate(modules, stagingRoot, cfg.Partitions())
	planSpan.End()
	logger.Info("plan generated",
		"overlay_partitions", len(plan.OverlayOps),
		"overlay_modules", len(plan.OverlayModuleIDs),
		"magic_modules", len(plan.MagicModuleIDs))

	result, err := executor.Run(ctx, plan, cfg, app.MagicMounter)
	if err != nil {
		return fmt.Errorf("execute mount plan: %w", err)
	}
	logger.Info("mount execution complete", "overlay_count", result.OverlayCount, "magic_count", result.MagicCount)

	nukeActive := app.StealthInjector.TryLoad(ctx, stagingRoot)

	storageMode := descriptor.StorageExt4
	if isTmpfs(stagingRoot) {
		storageMode = descriptor.StorageTmpfs
	}

	selfProp := filepath.Join(cfg.MetadataDir, defs.SelfModuleID, defs.ModulePropFile)
	descCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := descriptor.RewriteDescription(descCtx, selfProp, storageMode, nukeActive, result.OverlayCount, result.MagicCount); err != nil {
		logger.Warn("failed to rewrite module descriptor", "error", err)
	}

	return nil
}

// isTmpfs reports whether path's filesystem backing is tmpfs, by running
// statfs on path itself; an error is treated as "not tmpfs" (the common ext4
// case), matching the conservative default used for the descriptor label.
func isTmpfs(path string) bool {
	fsType, ok := statfsType(path)
	return ok && fsType == tmpfsMagic
}
