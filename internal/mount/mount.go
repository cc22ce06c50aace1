package mount

// Mounter defines the interface for loopback mount operations
type Mounter interface {
	// Mount mounts the image file at the target directory
	Mount(image, target string) error
	// Unmount unmounts the target directory
	Unmount(target string) error
	// IsMountPoint checks if the path is an active mount point
	IsMountPoint(path string) (bool, error)
}
