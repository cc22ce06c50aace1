package mount

import (
	"bytes"
	"os/exec"
)

// Runner executes an external command and captures its exit status and
// output streams. Abstracted so tests can substitute deterministic fakes
// for the privileged mount/umount binaries.
type Runner interface {
	Run(name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner implements Runner using os/exec
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	return stdout.Bytes(), stderr.Bytes(), err
}
