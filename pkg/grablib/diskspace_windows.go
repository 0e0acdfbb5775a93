//go:build windows

package grablib

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// CheckDiskSpace reports whether dir has at least requiredBytes of
// free space for the calling user. A requiredBytes of zero or an
// unreadable volume passes the check; it is a preflight hint, not a
// guarantee, and must never block a transfer that might succeed.
func CheckDiskSpace(dir string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}
	path, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return nil
	}
	var freeToCaller, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(path, &freeToCaller, &total, &free); err != nil {
		return nil
	}
	if int64(freeToCaller) < requiredBytes {
		return fmt.Errorf("%w: need %s, have %s",
			ErrInsufficientDiskSpace,
			ContentLength(requiredBytes),
			ContentLength(int64(freeToCaller)))
	}
	return nil
}
