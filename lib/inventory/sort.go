package inventory

import "sort"

// SortIDDescending orders modules Z→A by id, the order the planner
// requires when building overlay layer lists (§4.3: inventory delivers
// modules sorted id descending).
func SortIDDescending(modules []Module) {
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].ID > modules[j].ID
	})
}

// SortIDAscending orders modules A→Z by id, the order the magic-mount
// collaborator contract requires.
func SortIDAscending(modules []Module) {
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].ID < modules[j].ID
	})
}
