// Package inventory holds typed module records and the per-module mode
// configuration that the planner consumes.
package inventory

import (
	"os"

	"github.com/ghodss/yaml"

	"github.com/meta-hybrid/hybridmount/lib/scanner"
)

// Mode selects how a module's content is mounted.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeMagic Mode = "magic"
)

// Module is one enabled, discovered module.
type Module struct {
	ID         string
	SourcePath string
	Mode       Mode
}

// LoadModes reads the user-declared per-module mode file (YAML mapping of
// id to mode string). A missing file yields an empty map, not an error;
// unrecognized mode strings fall back to ModeAuto.
func LoadModes(path string) (map[string]Mode, error) {
	modes := make(map[string]Mode)
	if path == "" {
		return modes, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return modes, nil
		}
		return nil, err
	}

	var declared map[string]string
	if err := yaml.Unmarshal(raw, &declared); err != nil {
		return nil, err
	}

	for id, m := range declared {
		switch Mode(m) {
		case ModeMagic:
			modes[id] = ModeMagic
		default:
			modes[id] = ModeAuto
		}
	}
	return modes, nil
}

// Build assembles the inventory from scanned entries and the declared mode
// map. Entries without a declared mode default to ModeAuto.
func Build(entries []scanner.Entry, modes map[string]Mode) []Module {
	out := make([]Module, 0, len(entries))
	for _, e := range entries {
		mode := modes[e.ID]
		if mode == "" {
			mode = ModeAuto
		}
		out = append(out, Module{ID: e.ID, SourcePath: e.SourcePath, Mode: mode})
	}
	return out
}
