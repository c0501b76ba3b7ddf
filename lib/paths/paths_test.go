package paths

import (
	"path/filepath"
	"testing"
)

func TestStagingLayout(t *testing.T) {
	p := New("/data/adb/meta-hybrid")

	if got, want := p.StagingRoot(), "/data/adb/meta-hybrid/staging"; got != want {
		t.Errorf("StagingRoot() = %q, want %q", got, want)
	}
	if got, want := p.StagingModuleRoot("busybox"), filepath.Join("/data/adb/meta-hybrid/staging", "busybox"); got != want {
		t.Errorf("StagingModuleRoot() = %q, want %q", got, want)
	}
	if got, want := p.StagingModule("busybox", "system"), filepath.Join("/data/adb/meta-hybrid/staging", "busybox", "system"); got != want {
		t.Errorf("StagingModule() = %q, want %q", got, want)
	}
}

func TestTempDir(t *testing.T) {
	p := New("/data/adb/meta-hybrid")
	got := p.TempDir("abc123")
	want := filepath.Join("/data/adb/meta-hybrid", "tmp", "abc123")
	if got != want {
		t.Errorf("TempDir() = %q, want %q", got, want)
	}
}

func TestModulePropPath(t *testing.T) {
	got := ModulePropPath("/data/adb/modules/busybox")
	want := "/data/adb/modules/busybox/module.prop"
	if got != want {
		t.Errorf("ModulePropPath() = %q, want %q", got, want)
	}
}
