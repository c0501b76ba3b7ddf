package defs

import "testing"

func TestReserved(t *testing.T) {
	cases := map[string]bool{
		"meta-hybrid": true,
		"lost+found":  true,
		"busybox":     false,
		"":            false,
	}
	for id, want := range cases {
		if got := Reserved(id); got != want {
			t.Errorf("Reserved(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestBuiltinPartitionsOrder(t *testing.T) {
	want := []string{"system", "vendor", "product", "system_ext", "odm", "oem"}
	if len(BuiltinPartitions) != len(want) {
		t.Fatalf("len(BuiltinPartitions) = %d, want %d", len(BuiltinPartitions), len(want))
	}
	for i, p := range want {
		if BuiltinPartitions[i] != p {
			t.Errorf("BuiltinPartitions[%d] = %q, want %q", i, BuiltinPartitions[i], p)
		}
	}
}
