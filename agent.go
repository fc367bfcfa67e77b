package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"
)

// ErrLaunch wraps failures to start an agent process.
var ErrLaunch = errors.New("launch agent")

// Stream is the bidirectional byte stream of one agent: reads return the
// agent's command lines, writes deliver feedback frames.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Launcher starts agents by identifier.
type Launcher interface {
	Launch(ctx context.Context, agent string) (Stream, error)
}

// ProcessLauncher runs each agent as a child process, by default
// `docker run -i --rm <image>`, talking over its stdin and stdout.
type ProcessLauncher struct {
	Command string
	Args    []string
	Log     *zap.SugaredLogger
}

// NewProcessLauncher creates a launcher from config.
func NewProcessLauncher(cfg AgentsConfig, log *zap.SugaredLogger) *ProcessLauncher {
	return &ProcessLauncher{Command: cfg.Command, Args: cfg.Args, Log: log}
}

// Launch starts the process. The process outlives ctx; closing the returned
// stream kills it.
func (l *ProcessLauncher) Launch(ctx context.Context, agent string) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrLaunch, agent, err)
	}
	args := append(append([]string{}, l.Args...), agent)
	cmd := exec.Command(l.Command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w %q: stdin: %v", ErrLaunch, agent, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w %q: stdout: %v", ErrLaunch, agent, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w %q: stderr: %v", ErrLaunch, agent, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrLaunch, agent, err)
	}

	go l.drainStderr(agent, stderr)
	return &processStream{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (l *ProcessLauncher) drainStderr(agent string, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l.Log != nil {
			l.Log.Debugw("agent stderr", "agent", agent, "line", sc.Text())
		}
	}
}

type processStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (s *processStream) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *processStream) Write(p []byte) (int, error) { return s.stdin.Write(p) }

func (s *processStream) Close() error {
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	err := s.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
