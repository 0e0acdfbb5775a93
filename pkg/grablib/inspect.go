package grablib

import "os"

// LocalTarget describes the destination path of one transfer at the
// moment it was inspected. It is derived fresh for every attempt and
// never cached, since another process (or a previous partial run) may
// change the file between attempts.
type LocalTarget struct {
	Path   string
	Size   int64
	Exists bool
}

// InspectLocal stats path and reports its current state. A missing file
// is a normal result (size 0, not present), not an error.
func InspectLocal(path string) (local LocalTarget, err error) {
	local = LocalTarget{Path: path}
	fi, er := os.Stat(path)
	if er != nil {
		if os.IsNotExist(er) {
			return
		}
		err = er
		return
	}
	if fi.IsDir() {
		err = ErrTargetIsDirectory
		return
	}
	local.Size = fi.Size()
	local.Exists = true
	return
}
