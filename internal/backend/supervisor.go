// Package backend launches and terminates the comparison backend process.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ppiankov/symmetry/internal/logger"
)

// ErrStartThrottled is returned when Start is called again too soon and no
// backend from the previous call is still running.
var ErrStartThrottled = errors.New("backend start requested too frequently")

// Spec describes the backend command line.
type Spec struct {
	Command        string
	Args           []string // "{port}" is replaced with Port
	Dir            string
	EnvFile        string // dotenv file, relative to Dir unless absolute; optional
	ProcessPattern string // command-line pattern identifying stray backends
	Port           int
}

// Killer terminates processes that are not children of this supervisor.
type Killer interface {
	KillByPattern(ctx context.Context, pattern string) error
	KillByPort(ctx context.Context, port int) error
}

// Supervisor owns at most one backend child process.
type Supervisor struct {
	spec    Spec
	killer  Killer
	logger  *zap.Logger
	limiter *rate.Limiter

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithKiller replaces the system process killer.
func WithKiller(k Killer) Option {
	return func(s *Supervisor) { s.killer = k }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Supervisor) { s.logger = logger.OrNop(l) }
}

// WithStartInterval sets the minimum spacing between spawns.
func WithStartInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewSupervisor creates a supervisor for spec.
func NewSupervisor(spec Spec, opts ...Option) *Supervisor {
	s := &Supervisor{
		spec:    spec,
		killer:  NewSystemKiller(),
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start terminates any backend already holding the pattern or port, then
// spawns a fresh one. Failures to terminate are logged and ignored.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.limiter.Allow() {
		if s.Running() {
			s.logger.Info("Backend start ignored, previous start still running")
			return nil
		}
		return ErrStartThrottled
	}

	s.stopChild()
	s.killStrays(ctx)

	cmd := exec.Command(s.spec.Command, s.args()...)
	cmd.Dir = s.spec.Dir
	cmd.Env = append(os.Environ(), s.dotenv()...)
	cmd.Stdout = &lineLogger{logger: s.logger, stream: "stdout"}
	cmd.Stderr = &lineLogger{logger: s.logger, stream: "stderr"}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn backend: %w", err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.cmd = cmd
	s.done = done
	s.mu.Unlock()

	s.logger.Info("Backend started",
		zap.String("command", s.spec.Command),
		zap.Strings("args", cmd.Args[1:]),
		zap.Int("pid", cmd.Process.Pid),
	)

	go s.reap(cmd, done)
	return nil
}

// Stop terminates the backend: the owned child first, then anything matching
// the process pattern. Best-effort; failures are only logged.
func (s *Supervisor) Stop(ctx context.Context) {
	s.stopChild()
	if s.spec.ProcessPattern != "" {
		if err := s.killer.KillByPattern(ctx, s.spec.ProcessPattern); err != nil {
			s.logger.Warn("Failed to terminate backend by name", zap.String("pattern", s.spec.ProcessPattern), zap.Error(err))
		}
	}
}

// Running reports whether the owned child is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// PID returns the owned child's pid, or 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Done returns a channel closed when the current child exits, or nil when
// there is no child.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Supervisor) reap(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()

	s.mu.Lock()
	if s.cmd == cmd {
		s.cmd = nil
		s.done = nil
	}
	s.mu.Unlock()
	close(done)

	if err != nil {
		s.logger.Info("Backend exited", zap.Int("pid", cmd.Process.Pid), zap.Error(err))
		return
	}
	s.logger.Info("Backend exited", zap.Int("pid", cmd.Process.Pid))
}

func (s *Supervisor) stopChild() {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("Failed to kill backend child", zap.Int("pid", cmd.Process.Pid), zap.Error(err))
		return
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.logger.Warn("Backend child did not exit after kill", zap.Int("pid", cmd.Process.Pid))
	}
}

func (s *Supervisor) killStrays(ctx context.Context) {
	if s.spec.ProcessPattern != "" {
		if err := s.killer.KillByPattern(ctx, s.spec.ProcessPattern); err != nil {
			s.logger.Debug("Prior backend kill by name failed", zap.Error(err))
		}
	}
	if s.spec.Port > 0 {
		if err := s.killer.KillByPort(ctx, s.spec.Port); err != nil {
			s.logger.Debug("Prior backend kill by port failed", zap.Int("port", s.spec.Port), zap.Error(err))
		}
	}
}

func (s *Supervisor) args() []string {
	port := strconv.Itoa(s.spec.Port)
	out := make([]string, len(s.spec.Args))
	for i, a := range s.spec.Args {
		out[i] = strings.ReplaceAll(a, "{port}", port)
	}
	return out
}

// dotenv returns KEY=VALUE pairs from the env file; a missing file yields none.
func (s *Supervisor) dotenv() []string {
	if s.spec.EnvFile == "" {
		return nil
	}

	path := s.spec.EnvFile
	if !filepath.IsAbs(path) && s.spec.Dir != "" {
		path = filepath.Join(s.spec.Dir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		s.logger.Warn("Ignoring unreadable backend env file", zap.String("path", path), zap.Error(err))
		return nil
	}

	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	return out
}

// lineLogger forwards child output to the log one line at a time.
type lineLogger struct {
	logger *zap.Logger
	stream string
	buf    []byte
	mu     sync.Mutex
}

func (w *lineLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		if strings.TrimSpace(line) != "" {
			w.logger.Debug("backend output", zap.String("stream", w.stream), zap.String("line", line))
		}
	}
	return len(p), nil
}

var _ io.Writer = (*lineLogger)(nil)
