package hmconfig

import "testing"

func TestPartitionsAppendsExtras(t *testing.T) {
	c := &Config{ExtraPartitions: []string{"my_product"}}
	got := c.Partitions()
	want := []string{"system", "vendor", "product", "system_ext", "odm", "oem", "my_product"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Partitions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMaxStagingSizeBytes(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1MB", 1 << 20, false},
		{"not-a-size", 0, true},
	}
	for _, tc := range cases {
		c := &Config{MaxStagingSize: tc.in}
		got, err := c.MaxStagingSizeBytes()
		if tc.wantErr {
			if err == nil {
				t.Errorf("MaxStagingSizeBytes(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("MaxStagingSizeBytes(%q) unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("MaxStagingSizeBytes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
