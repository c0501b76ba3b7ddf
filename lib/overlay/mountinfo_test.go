package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleMountinfo = `36 35 98:0 / / rw,noatime master:1 - ext4 /dev/root rw,errors=continue
37 36 0:31 / /system/vendor rw,relatime - ext4 /dev/block/vendor rw
38 36 0:32 / /system/vendor/odm rw,relatime - ext4 /dev/block/odm rw
39 36 0:33 / /vendor rw,relatime - ext4 /dev/block/other rw
40 36 0:34 / /system rw,relatime - ext4 /dev/block/sysother rw
`

func TestParseMountPointsUnderFiltersByPrefixAndExcludesRootItself(t *testing.T) {
	mps, err := parseMountPointsUnder(strings.NewReader(sampleMountinfo), "/system")
	require.NoError(t, err)
	require.Equal(t, []string{"/system/vendor", "/system/vendor/odm"}, mps)
}

func TestParseMountPointsUnderDedupsAndSorts(t *testing.T) {
	data := sampleMountinfo + "41 36 0:35 / /system/vendor rw,relatime - ext4 /dev/block/vendor rw\n"
	mps, err := parseMountPointsUnder(strings.NewReader(data), "/system")
	require.NoError(t, err)
	require.Equal(t, []string{"/system/vendor", "/system/vendor/odm"}, mps)
}

func TestParseMountPointsUnderNoMatches(t *testing.T) {
	mps, err := parseMountPointsUnder(strings.NewReader(sampleMountinfo), "/product")
	require.NoError(t, err)
	require.Empty(t, mps)
}
