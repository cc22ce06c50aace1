package mount

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/kriansa/isomount/internal/log"
	"github.com/kriansa/isomount/internal/procmounts"
)

const (
	mountCommand   = "mount"
	unmountCommand = "umount"
)

// ErrToolMissing is returned when the external mount or umount binary
// cannot be found on the search path
var ErrToolMissing = errors.New("executable not found in PATH")

// CommandError is returned when an external command exits non-zero. It
// carries the command's captured output verbatim for diagnostics.
type CommandError struct {
	Command string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v (stdout: %q, stderr: %q)", e.Command, e.Err, e.Stdout, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecMounter implements Mounter by invoking the system mount and umount
// binaries through a Runner
type ExecMounter struct {
	options string // -o options for mount(8), e.g. "loop,ro"
	runner  Runner
}

// ExecMounterOption is a functional option for ExecMounter
type ExecMounterOption func(*ExecMounter)

// WithRunner sets a custom command runner (for testing)
func WithRunner(r Runner) ExecMounterOption {
	return func(m *ExecMounter) {
		m.runner = r
	}
}

// NewExecMounter creates a mounter that loop-mounts images with the
// given mount options
func NewExecMounter(options string, opts ...ExecMounterOption) *ExecMounter {
	m := &ExecMounter{
		options: options,
		runner:  ExecRunner{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Mount loop-mounts the image file at the target directory
func (m *ExecMounter) Mount(image, target string) error {
	log.Debug("mounting image", "image", image, "target", target, "options", m.options)

	stdout, stderr, err := m.runner.Run(mountCommand, "-o", m.options, image, target)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%s: %w", mountCommand, ErrToolMissing)
		}
		return &CommandError{
			Command: fmt.Sprintf("%s -o %s %s %s", mountCommand, m.options, image, target),
			Stdout:  string(stdout),
			Stderr:  string(stderr),
			Err:     err,
		}
	}

	log.Debug("mounted successfully", "image", image, "target", target)
	return nil
}

// Unmount unmounts the target directory
func (m *ExecMounter) Unmount(target string) error {
	log.Debug("unmounting", "target", target)

	stdout, stderr, err := m.runner.Run(unmountCommand, target)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%s: %w", unmountCommand, ErrToolMissing)
		}
		return &CommandError{
			Command: fmt.Sprintf("%s %s", unmountCommand, target),
			Stdout:  string(stdout),
			Stderr:  string(stderr),
			Err:     err,
		}
	}

	log.Debug("unmounted successfully", "target", target)
	return nil
}

// IsMountPoint checks if the path is an active mount point
func (m *ExecMounter) IsMountPoint(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("get absolute path: %w", err)
	}

	mounted, err := procmounts.MountedAt(absPath)
	if err != nil {
		return false, fmt.Errorf("unable to parse mounts: %w", err)
	}

	return mounted, nil
}
