//go:build linux

package environ

import (
	"golang.org/x/sys/unix"
)

// SystemGauge reads the running machine.
type SystemGauge struct{}

// Memory implements Gauge.
func (SystemGauge) Memory() (ram, swap uint64, err error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, 0, err
	}
	unit := uint64(info.Unit)
	return uint64(info.Totalram) * unit, uint64(info.Totalswap) * unit, nil
}

// Disk implements Gauge.
func (SystemGauge) Disk(path string) (total, free uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	return st.Blocks * bsize, st.Bavail * bsize, nil
}

// Kernel implements Gauge.
func (SystemGauge) Kernel() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}
