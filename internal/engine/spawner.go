package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"ucid/internal/common/fsutil"
)

// Process is the handle of a spawned engine.
type Process interface {
	Pid() int
	// Kill terminates the process immediately. Killing an exited process is not an error.
	Kill() error
	// Exited is closed once the process has been reaped.
	Exited() <-chan struct{}
}

// Conn is everything a slot owns for one spawned engine: the process handle,
// the write end of the engine's input pipe and the read end of its output pipe.
type Conn struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Proc   Process

	wmu       sync.Mutex
	closeOnce sync.Once
}

// Send writes cmd with every line terminated by "\r\n".
func (c *Conn) Send(cmd string) error {
	cmd = strings.TrimRight(strings.ReplaceAll(cmd, "\r\n", "\n"), "\n")
	wire := strings.ReplaceAll(cmd, "\n", lineEnd) + lineEnd
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := io.WriteString(c.Stdin, wire); err != nil {
		return &WriteFailure{Command: cmd, Err: err}
	}
	return nil
}

// close kills the process and releases both pipe ends. Safe to call twice.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		if c.Proc != nil {
			_ = c.Proc.Kill()
		}
		if c.Stdin != nil {
			_ = c.Stdin.Close()
		}
		if c.Stdout != nil {
			_ = c.Stdout.Close()
		}
	})
}

func (c *Conn) pid() int {
	if c == nil || c.Proc == nil {
		return 0
	}
	return c.Proc.Pid()
}

// Spawner creates engine processes with redirected standard streams.
type Spawner interface {
	Spawn(path string) (*Conn, error)
}

// ExecSpawner launches engines with os/exec over two private os.Pipe pairs.
// The parent's pipe ends are created close-on-exec, so the child only
// inherits the ends that exec dups onto its stdin, stdout and stderr.
type ExecSpawner struct{}

func (ExecSpawner) Spawn(path string) (*Conn, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &InvalidPathError{Path: path, Err: err}
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, &PipeCreationError{Err: fmt.Errorf("output pipe: %w", err)}
	}
	inR, inW, err := os.Pipe()
	if err != nil {
		_ = outR.Close()
		_ = outW.Close()
		return nil, &PipeCreationError{Err: fmt.Errorf("input pipe: %w", err)}
	}

	// No arguments, inherited environment and working directory.
	cmd := exec.Command(abs)
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = outW
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{outR, outW, inR, inW} {
			_ = f.Close()
		}
		return nil, &ProcessSpawnError{Path: path, Err: err}
	}
	// The child holds its own copies now; dropping ours lets EOF through
	// once the engine exits.
	_ = inR.Close()
	_ = outW.Close()

	p := &execProcess{cmd: cmd, exited: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()
	return &Conn{Stdin: inW, Stdout: outR, Proc: p}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *execProcess) Exited() <-chan struct{} { return p.exited }

// validatePath fails with *InvalidPathError unless path names an existing file.
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return &InvalidPathError{Path: path, Err: errEmptyPath}
	}
	if err := fsutil.CheckFile(path); err != nil {
		return &InvalidPathError{Path: path, Err: err}
	}
	return nil
}
