// Package planner derives a per-partition MountPlan from the module
// inventory and staging state.
package planner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/meta-hybrid/hybridmount/lib/inventory"
)

// OverlayOperation describes one partition's OverlayFS union. Lowerdirs is
// ordered top-to-bottom: index 0 is the highest-priority layer.
type OverlayOperation struct {
	Target    string
	Lowerdirs []string
}

// MountPlan is the planner's output, consumed by the executor.
type MountPlan struct {
	OverlayOps       []OverlayOperation
	MagicModulePaths []string
	OverlayModuleIDs []string
	MagicModuleIDs   []string
}

type participant struct {
	id      string
	path    string
	mode    inventory.Mode
}

// Generate builds a MountPlan. modules must already be sorted id-descending
// (inventory.SortIDDescending); partitions is the effective partition set
// (built-ins plus configured extras).
func Generate(modules []inventory.Module, stagingRoot string, partitions []string) MountPlan {
	byPartition := make(map[string][]participant, len(partitions))

	for _, m := range modules {
		contentPath := filepath.Join(stagingRoot, m.ID)
		if !exists(contentPath) {
			continue
		}
		for _, p := range partitions {
			partPath := filepath.Join(contentPath, p)
			if isDir(partPath) && hasEntries(partPath) {
				byPartition[p] = append(byPartition[p], participant{id: m.ID, path: partPath, mode: m.Mode})
			}
		}
	}

	var plan MountPlan
	magicPaths := make(map[string]struct{})
	overlayIDs := make(map[string]struct{})
	magicIDs := make(map[string]struct{})

	for _, p := range partitions {
		participants := byPartition[p]
		if len(participants) == 0 {
			continue
		}

		forceMagic := false
		for _, part := range participants {
			if part.mode == inventory.ModeMagic {
				forceMagic = true
				break
			}
		}

		if forceMagic {
			for _, part := range participants {
				magicPaths[filepath.Join(stagingRoot, part.id)] = struct{}{}
				magicIDs[part.id] = struct{}{}
			}
			continue
		}

		layers := make([]string, 0, len(participants))
		for _, part := range participants {
			layers = append(layers, part.path)
			overlayIDs[part.id] = struct{}{}
		}
		plan.OverlayOps = append(plan.OverlayOps, OverlayOperation{
			Target:    "/" + p,
			Lowerdirs: layers,
		})
	}

	plan.MagicModulePaths = sortedKeys(magicPaths)
	plan.OverlayModuleIDs = sortedKeys(overlayIDs)
	plan.MagicModuleIDs = sortedKeys(magicIDs)

	return plan
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasEntries(dir string) bool {
	f, err := os.Open(dir)
	if err != nil {
		return false
	}
	defer f.Close()
	names, err := f.Readdirnames(1)
	return err == nil && len(names) > 0
}
