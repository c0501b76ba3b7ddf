package executor

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/meta-hybrid/hybridmount/lib/logger"
)

// ExecCommandMounter shells out to an external magic_mount binary, treating
// its invocation as the opaque collaborator contract: tempdir, modules in
// ascending order, mount source, and extra partitions, each passed as a
// positional/flag argument. BinaryPath is resolved from config at
// construction; an empty path makes Mount a logged no-op.
type ExecCommandMounter struct {
	BinaryPath string
}

// Mount invokes the configured magic_mount binary. The binary's internal
// bind-graph construction is out of scope here; it is assumed given.
func (m ExecCommandMounter) Mount(ctx context.Context, tempDir string, modulePaths []string, mountSource string, extraPartitions []string) error {
	log := logger.FromContext(ctx)

	if m.BinaryPath == "" {
		log.Warn("no magic_mount binary configured, skipping magic pass", "modules", len(modulePaths))
		return nil
	}

	args := []string{"--tempdir", tempDir, "--source", mountSource}
	for _, p := range modulePaths {
		args = append(args, "--module", p)
	}
	for _, p := range extraPartitions {
		args = append(args, "--partition", p)
	}

	cmd := exec.CommandContext(ctx, m.BinaryPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("magic_mount %s: %w: %s", m.BinaryPath, err, out)
	}
	log.Info("magic_mount completed", "modules", len(modulePaths))
	return nil
}
