package procmounts

// Entry represents an entry in /proc/mounts
type Entry struct {
	Device     string
	MountPoint string
	FSType     string
	Options    string
}

// MountedAt reports whether any entry has path as its mount point.
// The path must already be absolute.
func MountedAt(path string) (bool, error) {
	mounts, err := Parse()
	if err != nil {
		return false, err
	}

	for _, mount := range mounts {
		if mount.MountPoint == path {
			return true, nil
		}
	}

	return false, nil
}
