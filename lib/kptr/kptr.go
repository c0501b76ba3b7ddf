// Package kptr provides a scoped guard around /proc/sys/kernel/kptr_restrict,
// temporarily lowered so the stealth collaborator can resolve kernel symbol
// addresses, then restored on every exit path.
package kptr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meta-hybrid/hybridmount/lib/logger"
)

const sysctlPath = "/proc/sys/kernel/kptr_restrict"

// Guard holds the prior kptr_restrict value for restoration.
type Guard struct {
	prior string
}

// ScopedRestrict lowers kptr_restrict to "0" and returns a Guard whose
// Release restores the prior value. Failing to read or write the sysctl
// aborts only the stealth lookup the caller is about to perform; it never
// fails mounting.
func ScopedRestrict(ctx context.Context) (*Guard, error) {
	prior, err := os.ReadFile(sysctlPath)
	if err != nil {
		return nil, fmt.Errorf("read kptr_restrict: %w", err)
	}
	if err := os.WriteFile(sysctlPath, []byte("0"), 0644); err != nil {
		return nil, fmt.Errorf("lower kptr_restrict: %w", err)
	}
	return &Guard{prior: strings.TrimSpace(string(prior))}, nil
}

// Release restores the prior kptr_restrict value. Safe to call on a nil
// Guard (no-op) and safe to call more than once.
func (g *Guard) Release(ctx context.Context) {
	if g == nil {
		return
	}
	log := logger.FromContext(ctx)
	if err := os.WriteFile(sysctlPath, []byte(g.prior), 0644); err != nil {
		log.Warn("failed to restore kptr_restrict", "error", err)
	}
}
