package hypervisor

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// ExecConfig bounds a single tool invocation. It is copied per call;
// operations that need a longer timeout or a GUI-visible process override
// their own copy without affecting the adapter default.
type ExecConfig struct {
	// Timeout bounds how long the invocation may block. Zero means no
	// deadline.
	Timeout time.Duration

	// GUI requests an interactive, elevation-capable execution. Used by
	// installation steps that trigger OS-level prompts.
	GUI bool
}

// WithTimeout returns a copy of the config with the timeout replaced.
func (c ExecConfig) WithTimeout(d time.Duration) ExecConfig {
	c.Timeout = d
	return c
}

// WithGUI returns a copy of the config with the GUI flag set.
func (c ExecConfig) WithGUI(gui bool) ExecConfig {
	c.GUI = gui
	return c
}

// CommandRunner executes one hypervisor CLI command and captures its
// output. A non-zero exit code is reported through the exit value, not as
// an error: each caller interprets it contextually. The error return is
// reserved for failures to run the tool at all.
type CommandRunner interface {
	Run(args []string, cfg ExecConfig) (exit int, stdout, stderr []string, err error)
}

// ManageRunner drives the VBoxManage binary. It applies no locking and no
// retries; serialization belongs to the lock table and retry policy to
// callers.
type ManageRunner struct {
	// Binary is the VBoxManage executable, resolved through PATH when not
	// absolute.
	Binary string
}

// NewManageRunner returns a runner for the given VBoxManage binary.
func NewManageRunner(binary string) *ManageRunner {
	if binary == "" {
		binary = "VBoxManage"
	}
	return &ManageRunner{Binary: binary}
}

// Run executes VBoxManage with the given arguments, honoring cfg.Timeout.
func (r *ManageRunner) Run(args []string, cfg ExecConfig) (int, []string, []string, error) {
	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exit := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exit = exitErr.ExitCode()
			err = nil
		} else if ctx.Err() != nil {
			err = ctx.Err()
		}
	}

	return exit, splitOutputLines(outBuf.String()), splitOutputLines(errBuf.String()), err
}

// splitOutputLines splits captured process output into trimmed-newline
// lines, dropping a single trailing empty line left by the final newline.
func splitOutputLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
