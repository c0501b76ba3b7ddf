// Package stealth provides the (out-of-scope per the core spec) stealth
// kernel-module injector interface: an Injector that attempts to load a
// prebuilt "nuke" LKM matching the running kernel, used to erase traces
// of the ext4-backed staging mount. Mounting proceeds regardless of its
// outcome.
package stealth

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/meta-hybrid/hybridmount/lib/defs"
	"github.com/meta-hybrid/hybridmount/lib/kptr"
	"github.com/meta-hybrid/hybridmount/lib/logger"
)

// Injector attempts to inject a stealth kernel module targeting
// mountPoint, reporting whether injection was attempted successfully.
// Failure aborts stealth only; it is never surfaced as a mount error.
type Injector interface {
	TryLoad(ctx context.Context, mountPoint string) bool
}

// NoopInjector never attempts injection. lib/hmproviders uses it only when
// no LKM directory is configured; otherwise it wires in LKMInjector.
type NoopInjector struct{}

func (NoopInjector) TryLoad(context.Context, string) bool { return false }

// LKMInjector loads a matching .ko from LKMDir into the running kernel.
type LKMInjector struct {
	LKMDir string
}

// NewLKMInjector constructs an LKMInjector rooted at lkmDir (defs.ModuleLKMDir
// by default).
func NewLKMInjector(lkmDir string) *LKMInjector {
	if lkmDir == "" {
		lkmDir = defs.ModuleLKMDir
	}
	return &LKMInjector{LKMDir: lkmDir}
}

// TryLoad finds a kernel-version-matching LKM under LKMDir and insmods it
// with the resolved symbol address for ext4_unregister_sysfs. The LKM is
// expected to self-unload (it returns -EAGAIN by design), so a non-zero
// insmod exit status does not indicate failure to inject.
func (l *LKMInjector) TryLoad(ctx context.Context, mountPoint string) bool {
	log := logger.FromContext(ctx)
	log.Info("attempting to load stealth LKM")

	release, err := kernelRelease()
	if err != nil {
		log.Error("failed to get kernel release", "error", err)
		return false
	}
	log.Info("kernel release", "release", release)

	entries, err := os.ReadDir(l.LKMDir)
	if err != nil {
		log.Warn("LKM directory not found", "dir", l.LKMDir)
		return false
	}

	kernelShort, ok := shortKernelVersion(release)
	if !ok {
		return false
	}

	koPath, found := findMatchingKO(entries, l.LKMDir, kernelShort, androidVersion())
	if !found {
		log.Warn("no matching stealth LKM found", "kernel", release)
		return false
	}

	guard, err := kptr.ScopedRestrict(ctx)
	if err != nil {
		log.Error("failed to lower kptr_restrict", "error", err)
		return false
	}
	defer guard.Release(ctx)

	symAddr, ok := symbolAddress("ext4_unregister_sysfs")
	if !ok || symAddr == "0x0000000000000000" {
		log.Warn("symbol ext4_unregister_sysfs not found or masked")
		return false
	}
	log.Info("symbol address", "addr", symAddr)

	cmd := exec.CommandContext(ctx, "insmod", koPath,
		fmt.Sprintf("mount_point=%s", mountPoint),
		fmt.Sprintf("symaddr=%s", symAddr))
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		if _, isExit := err.(*exec.ExitError); isExit {
			// The LKM intentionally fails insmod after running its payload.
			log.Info("stealth LKM injected (self-unloaded)")
			return true
		}
		log.Error("failed to spawn insmod", "error", err)
		return false
	}
	log.Info("stealth LKM injected")
	return true
}

func kernelRelease() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return cToString(uts.Release[:]), nil
}

func cToString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func androidVersion() string {
	out, err := exec.Command("getprop", "ro.build.version.release").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func shortKernelVersion(release string) (string, bool) {
	parts := strings.Split(release, ".")
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + "." + parts[1], true
}

// findMatchingKO prefers an exact kernel+Android version match, falling
// back to a kernel-version-only match.
func findMatchingKO(entries []os.DirEntry, dir, kernelShort, androidVer string) (string, bool) {
	if androidVer != "" {
		pattern := "android" + androidVer
		for _, e := range entries {
			name := e.Name()
			if strings.Contains(name, kernelShort) && strings.Contains(name, pattern) {
				return filepath.Join(dir, name), true
			}
		}
	}
	for _, e := range entries {
		name := e.Name()
		if strings.Contains(name, kernelShort) {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// symbolAddress resolves a kernel symbol address by scanning
// /proc/kallsyms directly, rather than shelling out to grep/awk.
func symbolAddress(symbol string) (string, bool) {
	f, err := os.Open("/proc/kallsyms")
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if fields[2] == symbol {
			return "0x" + fields[0], true
		}
	}
	return "", false
}
