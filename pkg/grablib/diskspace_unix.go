//go:build darwin || freebsd || linux

package grablib

import (
	"fmt"
	"syscall"
)

// CheckDiskSpace reports whether dir has at least requiredBytes of
// free space for unprivileged writers. A requiredBytes of zero or an
// unreadable filesystem passes the check; it is a preflight hint, not
// a guarantee, and must never block a transfer that might succeed.
func CheckDiskSpace(dir string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return nil
	}
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < requiredBytes {
		return fmt.Errorf("%w: need %s, have %s",
			ErrInsufficientDiskSpace,
			ContentLength(requiredBytes),
			ContentLength(available))
	}
	return nil
}
