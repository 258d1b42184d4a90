package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Process wraps a running ffmpeg demux invocation: a raw frame stream
// on Stdout and captured stderr for error reporting once it exits.
type Process struct {
	cmd    *exec.Cmd
	Stdout io.ReadCloser
	stderr *bytes.Buffer
}

// RunDemux starts ffmpeg with args and returns a Process whose Stdout
// streams the raw frame bytes. The caller must read Stdout to EOF and
// call Wait to reap the process and surface any ffmpeg error.
func RunDemux(ctx context.Context, args []string) (*Process, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &Process{cmd: cmd, Stdout: stdout, stderr: &stderr}, nil
}

// Wait blocks until ffmpeg exits, returning a descriptive error on
// non-zero exit (including a distinct message for missing input and
// for an input with no streams).
func (p *Process) Wait() error {
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}

	stderrStr := strings.TrimSpace(p.stderr.String())
	if p.cmd.ProcessState != nil && p.cmd.ProcessState.Exited() {
		switch {
		case strings.Contains(stderrStr, "No such file or directory"):
			return fmt.Errorf("input not found: %w", err)
		case strings.Contains(stderrStr, "No streams found"):
			return fmt.Errorf("no streams found in input: %w", err)
		}
	}
	return fmt.Errorf("ffmpeg demux failed: %w (stderr: %s)", err, stderrStr)
}

// Stderr returns ffmpeg's captured stderr output so far.
func (p *Process) Stderr() string {
	return p.stderr.String()
}
