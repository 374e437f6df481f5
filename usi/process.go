package usi

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Process is a running engine as seen by the bridge: one input stream for
// commands and two output streams. Stdout carries the USI protocol and
// Stderr is diagnostic output.
//
// Wait must only be called once both output streams have been drained.
type Process interface {
	Stdin() io.Writer
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() error
	Kill() error
	Pid() int
}

// Launcher spawns a new engine process.
type Launcher func() (Process, error)

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// ExecLauncher returns a Launcher that runs the binary at path with the
// current working directory as its working directory.
func ExecLauncher(path string, args ...string) Launcher {
	return func() (Process, error) {
		cmd := exec.Command(path, args...)
		if wd, err := os.Getwd(); err == nil {
			cmd.Dir = wd
		}
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, fmt.Errorf("stderr pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
	}
}

func (p *execProcess) Stdin() io.Writer  { return p.stdin }
func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }
func (p *execProcess) Wait() error       { return p.cmd.Wait() }
func (p *execProcess) Pid() int          { return p.cmd.Process.Pid }

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}
