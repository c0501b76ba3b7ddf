// Package defs holds the path constants, marker filenames, and built-in
// partition list shared across the hybrid mount engine.
package defs

// Base filesystem layout. BaseDir and its children are overridable via
// lib/hmconfig; these are the stock defaults matching the on-disk contract
// of the host rooting framework.
const (
	BaseDir            = "/data/adb/meta-hybrid/"
	FallbackContentDir = "/data/adb/meta-hybrid/mnt/"
	DaemonLogFile      = "/data/adb/meta-hybrid/daemon.log"
	ModuleLKMDir       = "/data/adb/modules/meta-hybrid/lkm/binaries/"
	SystemRWDir        = "/data/adb/meta-hybrid/rw"
)

// Marker files. Presence of any of these under a module's source directory
// disables it.
const (
	DisableFileName   = "disable"
	RemoveFileName    = "remove"
	SkipMountFileName = "skip_mount"
)

// Reserved top-level ids that are never modules.
const (
	SelfModuleID = "meta-hybrid"
	LostFoundID  = "lost+found"
)

// OverlaySource is the synthetic `source=` label passed to the OverlayFS
// mount (both the fsconfig path and the legacy mount(2) fallback).
const OverlaySource = "KSU"

// ModulePropFile is the conventional descriptor filename inside a module
// source directory.
const ModulePropFile = "module.prop"

// BuiltinPartitions is the fixed ordered sequence of partitions every
// installation mounts over, before any user-configured extras.
var BuiltinPartitions = []string{
	"system", "vendor", "product", "system_ext", "odm", "oem",
}

// Reserved reports whether id is never a module (self metadata dir, or the
// ext4 lost+found directory that shows up at the top of staging/meta dirs).
func Reserved(id string) bool {
	return id == SelfModuleID || id == LostFoundID
}
