package kptr

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedRestrictRoundTrip(t *testing.T) {
	if _, err := os.Stat(sysctlPath); err != nil {
		t.Skipf("kptr_restrict sysctl unavailable: %v", err)
	}
	if os.Geteuid() != 0 {
		t.Skip("requires root to write kptr_restrict")
	}

	before, err := os.ReadFile(sysctlPath)
	require.NoError(t, err)

	g, err := ScopedRestrict(context.Background())
	require.NoError(t, err)

	lowered, err := os.ReadFile(sysctlPath)
	require.NoError(t, err)
	require.Equal(t, "0\n", string(lowered))

	g.Release(context.Background())

	after, err := os.ReadFile(sysctlPath)
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestReleaseNilGuardIsNoop(t *testing.T) {
	var g *Guard
	g.Release(context.Background())
}
