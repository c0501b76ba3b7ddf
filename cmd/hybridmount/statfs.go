package main

import "golang.org/x/sys/unix"

// tmpfsMagic is the f_type value statfs(2) reports for a tmpfs mount.
const tmpfsMagic = 0x01021994

func statfsType(path string) (int64, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, false
	}
	return int64(st.Type), true
}
