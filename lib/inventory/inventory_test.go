package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meta-hybrid/hybridmount/lib/scanner"
)

func TestLoadModesDefaultsUnrecognizedToAuto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mA: magic\nmB: bogus\n"), 0644))

	modes, err := LoadModes(path)
	require.NoError(t, err)
	require.Equal(t, ModeMagic, modes["mA"])
	require.Equal(t, ModeAuto, modes["mB"])
}

func TestLoadModesMissingFile(t *testing.T) {
	modes, err := LoadModes(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Empty(t, modes)
}

func TestBuildDefaultsToAuto(t *testing.T) {
	entries := []scanner.Entry{{ID: "mA", SourcePath: "/src/mA"}}
	mods := Build(entries, map[string]Mode{})
	require.Len(t, mods, 1)
	require.Equal(t, ModeAuto, mods[0].Mode)
}

func TestSortOrdering(t *testing.T) {
	mods := []Module{{ID: "mA"}, {ID: "mC"}, {ID: "mB"}}
	SortIDDescending(mods)
	require.Equal(t, []string{"mC", "mB", "mA"}, ids(mods))

	SortIDAscending(mods)
	require.Equal(t, []string{"mA", "mB", "mC"}, ids(mods))
}

func ids(mods []Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.ID
	}
	return out
}

func TestListSortedByNameAndSkipsEmptyModules(t *testing.T) {
	dir := t.TempDir()

	mA := filepath.Join(dir, "mA")
	require.NoError(t, os.MkdirAll(filepath.Join(mA, "system"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mA, "system", "f"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mA, "module.prop"), []byte("name=Zeta\nversion=1\nauthor=a\ndescription=d\n"), 0644))

	mB := filepath.Join(dir, "mB")
	require.NoError(t, os.MkdirAll(filepath.Join(mB, "vendor"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mB, "vendor", "f"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mB, "module.prop"), []byte("name=Alpha\n"), 0644))

	empty := filepath.Join(dir, "mEmpty")
	require.NoError(t, os.MkdirAll(empty, 0755))

	modules := []Module{
		{ID: "mA", SourcePath: mA, Mode: ModeAuto},
		{ID: "mB", SourcePath: mB, Mode: ModeMagic},
		{ID: "mEmpty", SourcePath: empty, Mode: ModeAuto},
	}

	records := List(modules, "")
	require.Len(t, records, 2)
	require.Equal(t, "Alpha", records[0].Name)
	require.Equal(t, "Zeta", records[1].Name)
	require.Equal(t, ModeMagic, records[0].Mode)

	raw, err := MarshalJSON(records)
	require.NoError(t, err)
	var roundTrip []Record
	require.NoError(t, json.Unmarshal(raw, &roundTrip))
	require.Equal(t, records, roundTrip)
}

func TestMarshalJSONEmptyIsArray(t *testing.T) {
	raw, err := MarshalJSON(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))
}
