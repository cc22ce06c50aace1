// Package browser reveals directories in the user's file manager. It
// talks to the desktop over the org.freedesktop.FileManager1 D-Bus
// interface and falls back to xdg-open when no file manager is
// reachable on the session bus. Everything here is best-effort: callers
// treat failures as warnings, never as fatal errors.
package browser

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/kriansa/isomount/internal/log"
	"github.com/kriansa/isomount/internal/mount"
)

const (
	fileManagerService = "org.freedesktop.FileManager1"
	fileManagerPath    = "/org/freedesktop/FileManager1"
	showFoldersMethod  = "org.freedesktop.FileManager1.ShowFolders"

	fallbackCommand = "xdg-open"
)

// Opener shows a directory to the user
type Opener interface {
	Open(path string) error
}

// DesktopOpener implements Opener for freedesktop.org environments
type DesktopOpener struct {
	connectFn func() (Connection, error)
	runner    mount.Runner
}

// DesktopOpenerOption is a functional option for DesktopOpener
type DesktopOpenerOption func(*DesktopOpener)

// WithConnectFn sets a custom session-bus connector (for testing)
func WithConnectFn(fn func() (Connection, error)) DesktopOpenerOption {
	return func(o *DesktopOpener) {
		o.connectFn = fn
	}
}

// WithFallbackRunner sets a custom runner for the xdg-open fallback (for testing)
func WithFallbackRunner(r mount.Runner) DesktopOpenerOption {
	return func(o *DesktopOpener) {
		o.runner = r
	}
}

// NewDesktopOpener creates an opener that uses the session bus, falling
// back to xdg-open
func NewDesktopOpener(opts ...DesktopOpenerOption) *DesktopOpener {
	o := &DesktopOpener{
		connectFn: ConnectSessionBus,
		runner:    mount.ExecRunner{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Open shows the directory in the user's file manager
func (o *DesktopOpener) Open(path string) error {
	err := o.showFolders(path)
	if err == nil {
		return nil
	}
	log.Debug("file manager not reachable over dbus, falling back", "path", path, "error", err)

	if _, _, err := o.runner.Run(fallbackCommand, path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	return nil
}

// showFolders calls FileManager1.ShowFolders with the directory URI
func (o *DesktopOpener) showFolders(path string) error {
	conn, err := o.connectFn()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(fileManagerService, dbus.ObjectPath(fileManagerPath))

	uris := []string{"file://" + path}
	call := obj.Call(showFoldersMethod, 0, uris, "")
	if call.Err != nil {
		return fmt.Errorf("ShowFolders: %w", call.Err)
	}

	return nil
}
