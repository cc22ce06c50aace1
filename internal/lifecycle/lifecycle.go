// Package lifecycle orchestrates mounting and unmounting of ISO images.
// It ties together the mount point resolver, the mount-table query and
// the external mount/umount commands, and keeps the base directory tidy
// by removing mount directories once they are empty.
package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kriansa/isomount/internal/browser"
	"github.com/kriansa/isomount/internal/log"
	"github.com/kriansa/isomount/internal/mount"
	"github.com/kriansa/isomount/internal/mountpoint"
	"github.com/kriansa/isomount/internal/validation"
)

// Lifecycle performs mount and unmount actions for ISO images
type Lifecycle struct {
	baseDir  string
	resolver *mountpoint.Resolver
	mounter  mount.Mounter
	opener   browser.Opener
	out      io.Writer
	autoOpen bool
}

// Option is a functional option for Lifecycle
type Option func(*Lifecycle)

// WithOutput sets the writer for user-facing output (default os.Stdout)
func WithOutput(w io.Writer) Option {
	return func(l *Lifecycle) {
		l.out = w
	}
}

// WithAutoOpen controls whether mount points are revealed in the file
// manager after a successful or already-done mount (default true)
func WithAutoOpen(enabled bool) Option {
	return func(l *Lifecycle) {
		l.autoOpen = enabled
	}
}

// New creates a lifecycle rooted at baseDir
func New(baseDir string, mounter mount.Mounter, opener browser.Opener, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		baseDir:  baseDir,
		resolver: mountpoint.NewResolver(baseDir),
		mounter:  mounter,
		opener:   opener,
		out:      os.Stdout,
		autoOpen: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Mount mounts the ISO image at its resolved mount point. Mounting an
// image that is already mounted is a no-op success: the existing mount
// point is reported and revealed, and no second mount command runs.
func (l *Lifecycle) Mount(imagePath string) error {
	imagePath, err := filepath.Abs(imagePath)
	if err != nil {
		return fmt.Errorf("resolve image path: %w", err)
	}

	if err := validation.ValidateImagePath(imagePath); err != nil {
		return err
	}

	target := l.resolver.Resolve(imagePath)

	mounted, err := l.mounter.IsMountPoint(target)
	if err != nil {
		return fmt.Errorf("check mount status: %w", err)
	}

	if mounted {
		log.Info("image already mounted", "image", imagePath, "path", target)
		fmt.Fprintf(l.out, "%s is already mounted at %s\n", imagePath, target)
		l.open(target)
		return nil
	}

	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return fmt.Errorf("create base mount directory %q: %w", l.baseDir, err)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create mount directory %q: %w", target, err)
	}

	if err := l.mounter.Mount(imagePath, target); err != nil {
		if errors.Is(err, mount.ErrToolMissing) {
			return err
		}
		// Failed mounts leave nothing behind; tidy the directory we
		// just created if it is still empty.
		l.removeIfEmpty(target)
		return fmt.Errorf("mount image: %w", err)
	}

	log.Info("image mounted", "image", imagePath, "path", target)
	fmt.Fprintf(l.out, "Mounted %s at %s\n", imagePath, target)
	fmt.Fprintf(l.out, "Run `isomount unmount %s` to unmount it.\n", imagePath)
	l.open(target)
	return nil
}

// Unmount unmounts the ISO image's resolved mount point. The image file
// itself need not exist anymore; only its path matters. Unmounting an
// image that is not mounted is a no-op success.
func (l *Lifecycle) Unmount(imagePath string) error {
	imagePath, err := filepath.Abs(imagePath)
	if err != nil {
		return fmt.Errorf("resolve image path: %w", err)
	}

	target := l.resolver.Resolve(imagePath)

	if _, err := os.Stat(target); os.IsNotExist(err) {
		log.Info("mount point does not exist, nothing to do", "image", imagePath, "path", target)
		fmt.Fprintf(l.out, "%s is not mounted.\n", imagePath)
		return nil
	}

	mounted, err := l.mounter.IsMountPoint(target)
	if err != nil {
		return fmt.Errorf("check mount status: %w", err)
	}

	if !mounted {
		log.Info("not an active mount point", "image", imagePath, "path", target)
		fmt.Fprintf(l.out, "%s is not mounted.\n", imagePath)
		l.removeIfEmpty(target)
		return nil
	}

	if err := l.mounter.Unmount(target); err != nil {
		if errors.Is(err, mount.ErrToolMissing) {
			return err
		}
		return fmt.Errorf("unmount %q: %w (files may still be open under it)", target, err)
	}

	log.Info("image unmounted", "image", imagePath, "path", target)
	fmt.Fprintf(l.out, "Unmounted %s\n", target)

	if !l.removeIfEmpty(target) {
		log.Warn("mount directory not empty after unmount, leaving it", "path", target)
	}
	return nil
}

// open reveals the mount point in the user's file manager. Best-effort:
// failures are logged as warnings and never affect the outcome.
func (l *Lifecycle) open(target string) {
	if !l.autoOpen || l.opener == nil {
		return
	}

	if err := l.opener.Open(target); err != nil {
		log.Warn("unable to open mount point in file manager", "path", target, "error", err)
	}
}

// removeIfEmpty removes target when it is an empty directory. Returns
// whether the directory is gone. Non-empty directories are never
// removed; removal failures are downgraded to warnings.
func (l *Lifecycle) removeIfEmpty(target string) bool {
	entries, err := os.ReadDir(target)
	if err != nil {
		if os.IsNotExist(err) {
			return true
		}
		log.Warn("unable to inspect mount directory", "path", target, "error", err)
		return false
	}

	if len(entries) > 0 {
		return false
	}

	if err := os.Remove(target); err != nil {
		log.Warn("unable to remove empty mount directory", "path", target, "error", err)
		return false
	}

	log.Debug("removed empty mount directory", "path", target)
	return true
}
