package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"github.com/meta-hybrid/hybridmount/lib/defs"
	"github.com/meta-hybrid/hybridmount/lib/descriptor"
)

// Record is the JSON-serializable view of a module used by the listing
// request (§6: List output).
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Mode        Mode   `json:"mode"`
}

// List builds the listing payload: one Record per module that has a
// subdirectory for any built-in partition (checked against both the
// module's own source and the mnt fallback base), sorted by name. Whether
// that subdirectory holds any entries is not checked.
func List(modules []Module, mntBase string) []Record {
	withContent := lo.Filter(modules, func(m Module, _ int) bool {
		return hasContent(m.SourcePath, mntBase, m.ID)
	})

	out := lo.Map(withContent, func(m Module, _ int) Record {
		propPath := filepath.Join(m.SourcePath, defs.ModulePropFile)
		name, ok := descriptor.ReadProp(propPath, "name")
		if !ok {
			name = m.ID
		}
		version, _ := descriptor.ReadProp(propPath, "version")
		author, _ := descriptor.ReadProp(propPath, "author")
		desc, _ := descriptor.ReadProp(propPath, "description")

		return Record{
			ID:          m.ID,
			Name:        name,
			Version:     version,
			Author:      author,
			Description: desc,
			Mode:        m.Mode,
		}
	})

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func hasContent(sourcePath, mntBase, id string) bool {
	for _, p := range defs.BuiltinPartitions {
		if exists(filepath.Join(sourcePath, p)) {
			return true
		}
		if mntBase != "" && exists(filepath.Join(mntBase, id, p)) {
			return true
		}
	}
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MarshalJSON renders records as the JSON array the CLI's -list flag
// writes to stdout.
func MarshalJSON(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}
