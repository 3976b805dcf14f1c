//go:build linux

package budget

import "golang.org/x/sys/unix"

// Available reports total system memory on Linux via sysinfo(2).
func Available() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return uint64(info.Totalram) * uint64(info.Unit), nil
}
