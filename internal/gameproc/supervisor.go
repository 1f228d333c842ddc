// Package gameproc supervises the game server child process: lifecycle,
// stdin command writer, and stdout/stderr streaming into the console buffer.
package gameproc

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/config"
)

// Status of the supervised process.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusCrashed  Status = "crashed"
)

// Info is a point-in-time snapshot of the process.
type Info struct {
	Status    Status    `json:"status"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// LineFunc receives each console output line, ANSI-stripped.
type LineFunc func(line string)

// Supervisor owns the game server child process.
type Supervisor struct {
	cfg    *config.GameConfig
	logger *zap.Logger
	buffer *ConsoleBuffer
	onLine LineFunc

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	status    Status
	startedAt time.Time
	lastError string
	waitDone  chan error
}

// NewSupervisor creates a supervisor. onLine may be nil; output always lands
// in the buffer regardless.
func NewSupervisor(cfg *config.GameConfig, buffer *ConsoleBuffer, logger *zap.Logger, onLine LineFunc) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		cfg:    cfg,
		logger: logger,
		buffer: buffer,
		onLine: onLine,
		status: StatusStopped,
	}
}

// Start launches the game process. Starting an already running process is
// an error.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusRunning || s.status == StatusStopping {
		return fmt.Errorf("game process already running")
	}
	if s.cfg == nil || s.cfg.Command == "" {
		return fmt.Errorf("no game command configured")
	}

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	if s.cfg.WorkingDir != "" {
		cmd.Dir = s.cfg.WorkingDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start game process: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.status = StatusRunning
	s.startedAt = time.Now()
	s.lastError = ""
	s.waitDone = make(chan error, 1)

	s.logger.Info("Game process started",
		zap.String("command", s.cfg.Command),
		zap.Int("pid", cmd.Process.Pid))

	go s.stream(stdout, "")
	go s.stream(stderr, "stderr")
	go s.wait(cmd, s.waitDone)

	return nil
}

// stream copies process output into the buffer and the line callback.
func (s *Supervisor) stream(r io.Reader, prefix string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := cleanAnsi(scanner.Text())
		if prefix != "" {
			line = fmt.Sprintf("[%s] %s", prefix, line)
		}
		if s.buffer != nil {
			s.buffer.Append(line)
		}
		if s.onLine != nil {
			s.onLine(line)
		}
	}
}

// wait watches the process exit and records the final status.
func (s *Supervisor) wait(cmd *exec.Cmd, done chan error) {
	err := cmd.Wait()
	done <- err

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != cmd {
		return // superseded by a restart
	}
	s.cmd = nil
	s.stdin = nil
	if s.status == StatusStopping || err == nil {
		s.status = StatusStopped
		s.logger.Info("Game process exited")
		return
	}
	s.status = StatusCrashed
	s.lastError = err.Error()
	s.logger.Warn("Game process crashed", zap.Error(err))
}

// SendCommand writes one command line to the process stdin.
func (s *Supervisor) SendCommand(text string) error {
	s.mu.Lock()
	stdin := s.stdin
	running := s.status == StatusRunning
	s.mu.Unlock()

	if !running || stdin == nil {
		return fmt.Errorf("game process not running")
	}
	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

// Stop shuts the process down gracefully: send the stop command, wait for
// exit up to the configured timeout, then kill.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return fmt.Errorf("game process not running")
	}
	s.status = StatusStopping
	stdin := s.stdin
	cmd := s.cmd
	done := s.waitDone
	stopCommand := s.cfg.StopCommand
	timeout := time.Duration(s.cfg.StopTimeout) * time.Second
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if stopCommand != "" && stdin != nil {
		_, _ = io.WriteString(stdin, stopCommand+"\n")
	}

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("Game process did not stop in time, killing",
			zap.Duration("timeout", timeout))
		_ = cmd.Process.Kill()
		<-done
	}
	return nil
}

// Restart stops the process if running, then starts it again.
func (s *Supervisor) Restart() error {
	if s.Snapshot().Status == StatusRunning {
		if err := s.Stop(); err != nil {
			return err
		}
	}
	return s.Start()
}

// Snapshot returns the current process info.
func (s *Supervisor) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		Status:    s.status,
		LastError: s.lastError,
	}
	if s.cmd != nil && s.cmd.Process != nil {
		info.PID = s.cmd.Process.Pid
		info.StartedAt = s.startedAt
	}
	return info
}
