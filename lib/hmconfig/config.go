// Package hmconfig loads the hybrid mount engine's configuration from
// environment variables (with an optional .env file), mirroring the teacher
// daemon's config loader.
package hmconfig

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"

	"github.com/meta-hybrid/hybridmount/lib/defs"
)

// Config holds the engine's runtime configuration.
type Config struct {
	// MetadataDir is where the host rooting framework stores per-module
	// metadata (disable/remove/skip_mount markers, module.prop).
	MetadataDir string
	// MntFallbackDir is the auxiliary content directory the scanner merges
	// in (defs.FallbackContentDir by default).
	MntFallbackDir string
	// BaseDir is the engine's own base directory for staging, logs, and
	// temp mount workspaces.
	BaseDir string
	// StagingDir overrides the computed staging directory under BaseDir.
	StagingDir string
	// LogFile is the daemon log file path.
	LogFile string
	// LKMDir is where the stealth collaborator's prebuilt kernel module
	// binaries live (referenced only; loading is out of scope here).
	LKMDir string
	// RWDir is the optional overlay upperdir/workdir root.
	RWDir string
	// ModuleModesFile points at the user-declared per-module mode file.
	ModuleModesFile string
	// TempDirOverride, if set, is used verbatim instead of auto-selecting
	// a temp directory for the magic-mount pass.
	TempDirOverride string
	// ExtraPartitions are appended to defs.BuiltinPartitions.
	ExtraPartitions []string
	// MagicMountSource is the mount source string handed to the external
	// magic_mount collaborator.
	MagicMountSource string
	// MagicMountBinary is the path to the external magic_mount executable
	// adapter (lib/executor.ExecCommandMounter). Empty disables the magic
	// pass entirely (it becomes a no-op, logged as such).
	MagicMountBinary string
	// MaxStagingSize caps total staging disk usage, human-readable (e.g.
	// "2GB"); empty or "0" means unlimited.
	MaxStagingSize string
	// Verbose selects debug-level logging.
	Verbose bool

	// OpenTelemetry configuration.
	OtelEnabled           bool
	OtelEndpoint          string
	OtelServiceName       string
	OtelServiceInstanceID string
	OtelInsecure          bool
	Version               string
	Env                   string
}

// Load reads configuration from the process environment, first attempting
// to load a .env file (missing file is not an error).
func Load() *Config {
	_ = godotenv.Load()

	base := getEnv("HYBRIDMOUNT_BASE_DIR", defs.BaseDir)

	return &Config{
		MetadataDir:      getEnv("HYBRIDMOUNT_METADATA_DIR", "/data/adb/modules"),
		MntFallbackDir:   getEnv("HYBRIDMOUNT_MNT_DIR", defs.FallbackContentDir),
		BaseDir:          base,
		StagingDir:       getEnv("HYBRIDMOUNT_STAGING_DIR", ""),
		LogFile:          getEnv("HYBRIDMOUNT_LOG_FILE", defs.DaemonLogFile),
		LKMDir:           getEnv("HYBRIDMOUNT_LKM_DIR", defs.ModuleLKMDir),
		RWDir:            getEnv("HYBRIDMOUNT_RW_DIR", defs.SystemRWDir),
		ModuleModesFile:  getEnv("HYBRIDMOUNT_MODULE_MODES_FILE", ""),
		TempDirOverride:  getEnv("HYBRIDMOUNT_TEMP_DIR", ""),
		ExtraPartitions:  getEnvList("HYBRIDMOUNT_EXTRA_PARTITIONS", nil),
		MagicMountSource: getEnv("HYBRIDMOUNT_MAGIC_SOURCE", "KSU"),
		MagicMountBinary: getEnv("HYBRIDMOUNT_MAGIC_MOUNT_BIN", ""),
		MaxStagingSize:   getEnv("HYBRIDMOUNT_MAX_STAGING_SIZE", ""),
		Verbose:          getEnvBool("HYBRIDMOUNT_VERBOSE", false),

		OtelEnabled:           getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:          getEnv("OTEL_ENDPOINT", "127.0.0.1:4317"),
		OtelServiceName:       getEnv("OTEL_SERVICE_NAME", "hybridmount"),
		OtelServiceInstanceID: getEnv("OTEL_SERVICE_INSTANCE_ID", getHostname()),
		OtelInsecure:          getEnvBool("OTEL_INSECURE", true),
		Version:               getEnv("VERSION", getBuildVersion()),
		Env:                   getEnv("ENV", "unset"),
	}
}

func getHostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}

// getBuildVersion extracts the short git revision from Go's embedded build
// info, appending "-dirty" when built from an uncommitted tree.
func getBuildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if revision == "" {
		return "unknown"
	}
	if len(revision) > 8 {
		revision = revision[:8]
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MaxStagingSizeBytes parses MaxStagingSize ("100GB", "512MB", ...); units
// are binary, so "1MB" is 1048576 bytes. An empty or "0" value means
// unlimited (returns 0, nil).
func (c *Config) MaxStagingSizeBytes() (int64, error) {
	if c.MaxStagingSize == "" || c.MaxStagingSize == "0" {
		return 0, nil
	}
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(c.MaxStagingSize)); err != nil {
		return 0, fmt.Errorf("parse HYBRIDMOUNT_MAX_STAGING_SIZE %q: %w", c.MaxStagingSize, err)
	}
	return int64(size), nil
}

// Partitions returns the built-in partition sequence concatenated with the
// user's configured extras. Duplicates are harmless (spec.md §3).
func (c *Config) Partitions() []string {
	all := make([]string, 0, len(defs.BuiltinPartitions)+len(c.ExtraPartitions))
	all = append(all, defs.BuiltinPartitions...)
	all = append(all, c.ExtraPartitions...)
	return all
}
