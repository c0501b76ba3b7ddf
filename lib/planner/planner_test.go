package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meta-hybrid/hybridmount/lib/inventory"
)

func stageModule(t *testing.T, root, id string, partitions ...string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	for _, p := range partitions {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, p), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, p, "f"), nil, 0644))
	}
	return dir
}

func TestLayerOrderTopToBottomZtoA(t *testing.T) {
	root := t.TempDir()
	stageModule(t, root, "mA", "system")
	stageModule(t, root, "mB", "system")
	stageModule(t, root, "mC", "system")

	modules := []inventory.Module{
		{ID: "mC", Mode: inventory.ModeAuto},
		{ID: "mB", Mode: inventory.ModeAuto},
		{ID: "mA", Mode: inventory.ModeAuto},
	}

	plan := Generate(modules, root, []string{"system"})
	require.Len(t, plan.OverlayOps, 1)
	op := plan.OverlayOps[0]
	require.Equal(t, "/system", op.Target)
	require.Equal(t, []string{
		filepath.Join(root, "mC", "system"),
		filepath.Join(root, "mB", "system"),
		filepath.Join(root, "mA", "system"),
	}, op.Lowerdirs)
}

func TestSingleAutoModule(t *testing.T) {
	root := t.TempDir()
	stageModule(t, root, "mA", "system")

	modules := []inventory.Module{{ID: "mA", Mode: inventory.ModeAuto}}
	plan := Generate(modules, root, []string{"system", "vendor"})

	require.Len(t, plan.OverlayOps, 1)
	require.Equal(t, "/system", plan.OverlayOps[0].Target)
	require.Empty(t, plan.MagicModulePaths)
	require.Equal(t, []string{"mA"}, plan.OverlayModuleIDs)
	require.Empty(t, plan.MagicModuleIDs)
}

func TestMagicPropagationForcesPartitionAndAutoModule(t *testing.T) {
	root := t.TempDir()
	stageModule(t, root, "mA", "system")
	stageModule(t, root, "mB", "system", "vendor")

	modules := []inventory.Module{
		{ID: "mB", Mode: inventory.ModeMagic},
		{ID: "mA", Mode: inventory.ModeAuto},
	}

	plan := Generate(modules, root, []string{"system", "vendor"})

	require.Empty(t, plan.OverlayOps)
	require.ElementsMatch(t, []string{"mA", "mB"}, plan.MagicModuleIDs)
	require.Empty(t, plan.OverlayModuleIDs)
	require.ElementsMatch(t, []string{
		filepath.Join(root, "mA"),
		filepath.Join(root, "mB"),
	}, plan.MagicModulePaths)
}

func TestModuleWithoutStagingContentIsSkipped(t *testing.T) {
	root := t.TempDir()
	modules := []inventory.Module{{ID: "mMissing", Mode: inventory.ModeAuto}}
	plan := Generate(modules, root, []string{"system"})
	require.Empty(t, plan.OverlayOps)
	require.Empty(t, plan.OverlayModuleIDs)
}
