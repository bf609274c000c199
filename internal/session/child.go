// Package session owns the wrapped assistant process, the virtual screen
// mirror, and the debounce/snapshot scheduling that drives prompt detection.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/aymanbagabas/go-pty"
	"github.com/lazyvibe/vibepilot/internal/model"
)

// Child is the spawned assistant process. Implementations are PTY-backed
// when a pseudo-terminal is available and pipe-backed otherwise.
type Child interface {
	// Start launches the process.
	Start(ctx context.Context) error
	// Output returns the channel carrying raw output bytes.
	Output() <-chan []byte
	// Write sends data to the process input.
	Write(data []byte) (int, error)
	// Resize updates the terminal geometry, if any.
	Resize(cols, rows int) error
	// Status returns the current process status.
	Status() model.SessionStatus
	// ExitErr returns the process exit error, if any.
	ExitErr() error
	// Stop terminates the process. Safe to call multiple times.
	Stop() error
}

// SpawnError carries the diagnostic detail for a failed assistant launch.
// A missing or broken binary is a configuration problem, not a transient
// fault, so spawn failures are never retried.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// PTYChild runs the assistant inside a pseudo-terminal.
type PTYChild struct {
	path string
	args []string
	dir  string
	env  []string

	mu      sync.RWMutex
	ptmx    pty.Pty
	cmd     *pty.Cmd
	output  chan []byte
	done    chan struct{}
	status  model.SessionStatus
	exitErr error
	cols    int
	rows    int
	stopped sync.Once
}

// NewPTYChild creates a PTY-backed child for the given command line.
func NewPTYChild(path string, args []string, dir string, env []string, cols, rows int) *PTYChild {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	return &PTYChild{
		path:   path,
		args:   args,
		dir:    dir,
		env:    env,
		output: make(chan []byte, 256),
		done:   make(chan struct{}),
		status: model.SessionStatusIdle,
		cols:   cols,
		rows:   rows,
	}
}

// Start launches the assistant inside a fresh pseudo-terminal.
func (c *PTYChild) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == model.SessionStatusRunning {
		return errors.New("child already running")
	}

	ptmx, err := pty.New()
	if err != nil {
		c.status = model.SessionStatusError
		return fmt.Errorf("create pty: %w", err)
	}
	c.ptmx = ptmx

	// Size before spawn so the child never observes the default geometry.
	_ = ptmx.Resize(c.cols, c.rows)

	commander, ok := ptmx.(interface {
		Command(name string, arg ...string) *pty.Cmd
	})
	if !ok {
		ptmx.Close()
		c.status = model.SessionStatusError
		return errors.New("pty implementation does not support command creation")
	}
	cmd := commander.Command(c.path, c.args...)
	cmd.Dir = c.dir
	cmd.Env = c.env

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		c.status = model.SessionStatusError
		spawnErr := &SpawnError{Path: formatCmdLine(c.path, c.args), Err: err}
		c.exitErr = spawnErr
		return spawnErr
	}
	c.cmd = cmd
	c.status = model.SessionStatusRunning

	go c.readLoop()
	go c.waitLoop()
	return nil
}

func formatCmdLine(path string, args []string) string {
	if len(args) == 0 {
		return path
	}
	return path + " " + strings.Join(args, " ")
}

// readLoop continuously reads from the PTY and fans bytes out on the output
// channel. It is the only closer of the output channel, on every exit path,
// so consumers draining the channel always unblock.
func (c *PTYChild) readLoop() {
	defer close(c.output)

	buf := make([]byte, 4096)
	for {
		select {
		case <-c.done:
			return
		default:
			n, err := c.ptmx.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case c.output <- data:
				case <-c.done:
					return
				}
			}
			if err != nil {
				// EOF or closed pty; the process has ended.
				c.mu.Lock()
				if c.status == model.SessionStatusRunning {
					c.status = model.SessionStatusStopped
				}
				c.mu.Unlock()
				return
			}
		}
	}
}

// waitLoop records the process exit result.
func (c *PTYChild) waitLoop() {
	if c.cmd == nil {
		return
	}
	err := c.cmd.Wait()
	c.mu.Lock()
	if c.exitErr == nil {
		c.exitErr = err
	}
	if c.status == model.SessionStatusRunning {
		c.status = model.SessionStatusStopped
	}
	c.mu.Unlock()
}

// Output returns the output channel. It is closed when the process exits.
func (c *PTYChild) Output() <-chan []byte {
	return c.output
}

// Write sends data to the PTY input.
func (c *PTYChild) Write(data []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.status != model.SessionStatusRunning {
		return 0, errors.New("child not running")
	}
	return c.ptmx.Write(data)
}

// Resize updates the PTY geometry.
func (c *PTYChild) Resize(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cols, c.rows = cols, rows
	if c.ptmx == nil {
		return nil
	}
	return c.ptmx.Resize(cols, rows)
}

// Status returns the current process status.
func (c *PTYChild) Status() model.SessionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// ExitErr returns the process exit error, if any.
func (c *PTYChild) ExitErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exitErr
}

// Stop terminates the process and releases the PTY. Idempotent.
func (c *PTYChild) Stop() error {
	c.stopped.Do(func() {
		close(c.done)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.ptmx != nil {
			c.ptmx.Close()
		}
		if c.cmd != nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		if c.status == model.SessionStatusRunning {
			c.status = model.SessionStatusStopped
		}
	})
	return nil
}

// PipeChild runs the assistant over plain pipes when no pseudo-terminal is
// available. Output ordering guarantees match PTYChild; Resize is a no-op.
type PipeChild struct {
	path string
	args []string
	dir  string
	env  []string

	mu      sync.RWMutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	output  chan []byte
	done    chan struct{}
	status  model.SessionStatus
	exitErr error
	stopped sync.Once
}

// NewPipeChild creates a pipe-backed child for the given command line.
func NewPipeChild(path string, args []string, dir string, env []string) *PipeChild {
	return &PipeChild{
		path:   path,
		args:   args,
		dir:    dir,
		env:    env,
		output: make(chan []byte, 256),
		done:   make(chan struct{}),
		status: model.SessionStatusIdle,
	}
}

// Start launches the assistant with piped stdio.
func (c *PipeChild) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == model.SessionStatusRunning {
		return errors.New("child already running")
	}

	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Dir = c.dir
	cmd.Env = c.env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.status = model.SessionStatusError
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.status = model.SessionStatusError
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		c.status = model.SessionStatusError
		spawnErr := &SpawnError{Path: formatCmdLine(c.path, c.args), Err: err}
		c.exitErr = spawnErr
		return spawnErr
	}
	c.cmd = cmd
	c.stdin = stdin
	c.status = model.SessionStatusRunning

	go c.readLoop(stdout)
	go c.waitLoop()
	return nil
}

func (c *PipeChild) readLoop(r io.Reader) {
	defer close(c.output)

	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case c.output <- data:
			case <-c.done:
				return
			}
		}
		if err != nil {
			c.mu.Lock()
			if c.status == model.SessionStatusRunning {
				c.status = model.SessionStatusStopped
			}
			c.mu.Unlock()
			return
		}
	}
}

func (c *PipeChild) waitLoop() {
	if c.cmd == nil {
		return
	}
	err := c.cmd.Wait()
	c.mu.Lock()
	if c.exitErr == nil {
		c.exitErr = err
	}
	if c.status == model.SessionStatusRunning {
		c.status = model.SessionStatusStopped
	}
	c.mu.Unlock()
}

// Output returns the output channel. It is closed when the process exits.
func (c *PipeChild) Output() <-chan []byte {
	return c.output
}

// Write sends data to the process stdin.
func (c *PipeChild) Write(data []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.status != model.SessionStatusRunning {
		return 0, errors.New("child not running")
	}
	return c.stdin.Write(data)
}

// Resize is a no-op for pipe-backed children.
func (c *PipeChild) Resize(cols, rows int) error { return nil }

// Status returns the current process status.
func (c *PipeChild) Status() model.SessionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// ExitErr returns the process exit error, if any.
func (c *PipeChild) ExitErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exitErr
}

// Stop terminates the process and closes stdin. Idempotent.
func (c *PipeChild) Stop() error {
	c.stopped.Do(func() {
		close(c.done)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.stdin != nil {
			c.stdin.Close()
		}
		if c.cmd != nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		if c.status == model.SessionStatusRunning {
			c.status = model.SessionStatusStopped
		}
	})
	return nil
}
