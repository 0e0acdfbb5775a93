//go:build !darwin && !freebsd && !linux && !windows

package grablib

// CheckDiskSpace passes on platforms without a free-space syscall
// binding; the transfer finds out the hard way.
func CheckDiskSpace(dir string, requiredBytes int64) error {
	return nil
}
