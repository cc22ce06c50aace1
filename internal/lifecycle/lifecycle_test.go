package lifecycle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kriansa/isomount/internal/log"
	"github.com/kriansa/isomount/internal/mount"
	"github.com/kriansa/isomount/internal/mountpoint"
	"github.com/kriansa/isomount/internal/validation"
)

func TestMain(m *testing.M) {
	log.Setup(false)
	os.Exit(m.Run())
}

// fakeMounter implements mount.Mounter with canned mount-table state
type fakeMounter struct {
	mounted      map[string]bool
	mountErr     error
	unmountErr   error
	mountCalls   [][2]string
	unmountCalls []string
}

func (m *fakeMounter) Mount(image, target string) error {
	m.mountCalls = append(m.mountCalls, [2]string{image, target})
	return m.mountErr
}

func (m *fakeMounter) Unmount(target string) error {
	m.unmountCalls = append(m.unmountCalls, target)
	return m.unmountErr
}

func (m *fakeMounter) IsMountPoint(path string) (bool, error) {
	return m.mounted[path], nil
}

// fakeOpener records directories it was asked to reveal
type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) Open(path string) error {
	o.opened = append(o.opened, path)
	return o.err
}

type fixture struct {
	baseDir string
	image   string
	target  string
	mounter *fakeMounter
	opener  *fakeOpener
	out     bytes.Buffer
	lc      *Lifecycle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		baseDir: filepath.Join(t.TempDir(), "mounts"),
		mounter: &fakeMounter{mounted: map[string]bool{}},
		opener:  &fakeOpener{},
	}

	imageDir := t.TempDir()
	f.image = filepath.Join(imageDir, "Ubuntu-22.04.iso")
	require.NoError(t, os.WriteFile(f.image, []byte("iso data"), 0o644))

	f.target = mountpoint.NewResolver(f.baseDir).Resolve(f.image)
	f.lc = New(f.baseDir, f.mounter, f.opener, WithOutput(&f.out))
	return f
}

func TestMount(t *testing.T) {
	f := newFixture(t)

	err := f.lc.Mount(f.image)
	require.NoError(t, err)

	require.Len(t, f.mounter.mountCalls, 1)
	assert.Equal(t, [2]string{f.image, f.target}, f.mounter.mountCalls[0])

	// Mount directory was created under the base dir
	info, err := os.Stat(f.target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Contains(t, f.out.String(), f.target, "mount point must be reported")
	assert.Equal(t, []string{f.target}, f.opener.opened, "mount point should be revealed")
}

func TestMount_AlreadyMounted(t *testing.T) {
	f := newFixture(t)
	f.mounter.mounted[f.target] = true

	err := f.lc.Mount(f.image)
	require.NoError(t, err, "mounting an already-mounted image is a no-op success")

	assert.Empty(t, f.mounter.mountCalls, "no second mount command should run")
	assert.Contains(t, f.out.String(), f.target)
	assert.Equal(t, []string{f.target}, f.opener.opened)
}

func TestMount_OpenFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.opener.err = errors.New("no file manager installed")

	err := f.lc.Mount(f.image)
	assert.NoError(t, err, "browser failure must not fail the mount")
}

func TestMount_MissingImage(t *testing.T) {
	f := newFixture(t)

	err := f.lc.Mount(filepath.Join(t.TempDir(), "absent.iso"))
	assert.ErrorIs(t, err, validation.ErrImageNotFound)
	assert.Empty(t, f.mounter.mountCalls)
}

func TestMount_NotAnISO(t *testing.T) {
	f := newFixture(t)

	txt := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(txt, []byte("text"), 0o644))

	err := f.lc.Mount(txt)
	assert.ErrorIs(t, err, validation.ErrNotAnISO)
	assert.Empty(t, f.mounter.mountCalls)
}

func TestMount_CommandFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.mounter.mountErr = &mount.CommandError{
		Command: "mount -o loop,ro",
		Stderr:  "mount: special device busy",
		Err:     errors.New("exit status 32"),
	}

	err := f.lc.Mount(f.image)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "special device busy", "captured stderr must surface")

	_, statErr := os.Stat(f.target)
	assert.True(t, os.IsNotExist(statErr), "empty mount directory should be removed after a failed mount")
}

func TestMount_ToolMissing(t *testing.T) {
	f := newFixture(t)
	f.mounter.mountErr = fmt.Errorf("mount: %w", mount.ErrToolMissing)

	err := f.lc.Mount(f.image)
	assert.ErrorIs(t, err, mount.ErrToolMissing)

	// No cleanup happens when the mount binary itself was never run
	_, statErr := os.Stat(f.target)
	assert.NoError(t, statErr)
}

func TestUnmount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.target, 0o755))
	f.mounter.mounted[f.target] = true

	err := f.lc.Unmount(f.image)
	require.NoError(t, err)

	assert.Equal(t, []string{f.target}, f.mounter.unmountCalls)

	_, statErr := os.Stat(f.target)
	assert.True(t, os.IsNotExist(statErr), "empty mount directory should be removed after unmount")
}

func TestUnmount_NeverMounted(t *testing.T) {
	f := newFixture(t)

	err := f.lc.Unmount(f.image)
	require.NoError(t, err, "unmounting a never-mounted image is a no-op success")
	assert.Empty(t, f.mounter.unmountCalls, "no unmount command should run")
}

func TestUnmount_ImageFileGone(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.target, 0o755))
	f.mounter.mounted[f.target] = true

	// The image was deleted after mounting; unmount still resolves the
	// same mount point from the path alone.
	require.NoError(t, os.Remove(f.image))

	err := f.lc.Unmount(f.image)
	require.NoError(t, err)
	assert.Equal(t, []string{f.target}, f.mounter.unmountCalls)
}

func TestUnmount_DirExistsButNotMounted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.target, 0o755))

	err := f.lc.Unmount(f.image)
	require.NoError(t, err)

	assert.Empty(t, f.mounter.unmountCalls)
	_, statErr := os.Stat(f.target)
	assert.True(t, os.IsNotExist(statErr), "stale empty directory should be cleaned up")
}

func TestUnmount_NonEmptyDirKept(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.target, "leftover"), []byte("x"), 0o644))
	f.mounter.mounted[f.target] = true

	err := f.lc.Unmount(f.image)
	require.NoError(t, err, "non-empty directory is a warning, not a failure")

	_, statErr := os.Stat(f.target)
	assert.NoError(t, statErr, "non-empty directory must never be removed")
}

func TestUnmount_CommandFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.target, 0o755))
	f.mounter.mounted[f.target] = true
	f.mounter.unmountErr = &mount.CommandError{
		Command: "umount",
		Stderr:  "umount: target is busy",
		Err:     errors.New("exit status 32"),
	}

	err := f.lc.Unmount(f.image)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target is busy")
	assert.Contains(t, err.Error(), "open", "hint about open files expected")

	_, statErr := os.Stat(f.target)
	assert.NoError(t, statErr, "directory must be left untouched on unmount failure")
}

func TestMount_NoAutoOpen(t *testing.T) {
	f := newFixture(t)
	f.lc = New(f.baseDir, f.mounter, f.opener, WithOutput(&f.out), WithAutoOpen(false))

	err := f.lc.Mount(f.image)
	require.NoError(t, err)
	assert.Empty(t, f.opener.opened)
}
