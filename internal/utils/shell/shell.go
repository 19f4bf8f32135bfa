package shell

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

var log = logger.Logger()

// Executor runs external commands. The indirection exists so tests can
// intercept mkfs invocations without touching the host.
type Executor interface {
	Run(name string, args ...string) (string, error)
	RunSilent(name string, args ...string) (string, error)
}

type DefaultExecutor struct{}

var Default Executor = &DefaultExecutor{}

// Run executes a command and returns its combined output. The invocation and
// any failure are logged.
func (e *DefaultExecutor) Run(name string, args ...string) (string, error) {
	log.Debugf("Exec: [%s %s]", name, strings.Join(args, " "))
	out, err := e.RunSilent(name, args...)
	if err != nil {
		log.Errorf("Command %s failed: %v", name, err)
	}
	return out, err
}

// RunSilent executes a command and returns its combined output without
// logging the invocation.
func (e *DefaultExecutor) RunSilent(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(buf.String()))
	}
	return buf.String(), nil
}

// IsCommandExist reports whether the named command resolves on PATH.
func IsCommandExist(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
