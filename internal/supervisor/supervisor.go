// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/wingedpig/sidecar/internal/events"
	"github.com/wingedpig/sidecar/internal/locator"
)

const (
	defaultStopTimeout  = 5 * time.Second
	defaultKillTimeout  = 5 * time.Second
	defaultMaxLineBytes = 1024 * 1024

	// drainTimeout bounds how long trailing output is read after the backend
	// exits. A child that inherited the pipes keeps them open indefinitely.
	drainTimeout = 500 * time.Millisecond
)

// Options configures a Supervisor.
type Options struct {
	Locator      *locator.Locator // Resolves the backend path when Path is empty
	Path         string           // Explicit backend path, bypasses the locator
	Emitter      *Emitter
	DataDir      string // Where backend.pid is kept; empty disables orphan reaping
	StopSignal   string // SIGTERM, SIGINT or SIGKILL
	StopTimeout  time.Duration
	KillTimeout  time.Duration
	MaxLineBytes int
}

// Supervisor owns the single backend process handle.
type Supervisor struct {
	opts    Options
	emitter *Emitter

	mu     sync.Mutex
	handle *handle
	status Status

	// stopMu serializes Stop so a second caller waits for the first teardown
	// to finish and then finds no handle.
	stopMu sync.Mutex
}

// handle is a live backend process. It is owned by whoever holds it in the
// supervisor's slot; Stop takes it out before tearing it down.
type handle struct {
	cmd    *exec.Cmd
	pid    int
	path   string
	stdout io.ReadCloser
	stderr io.ReadCloser
	quit   chan struct{} // closed to stop the reader loops between lines
	done   chan struct{} // closed once the process is reaped and output drained

	quitOnce sync.Once
}

// stopReading ends the reader loops and unblocks any pending read.
func (h *handle) stopReading() {
	h.quitOnce.Do(func() { close(h.quit) })
	h.stdout.Close()
	h.stderr.Close()
}

// New creates a supervisor. Nothing is spawned until Start.
func New(opts Options) *Supervisor {
	if opts.Emitter == nil {
		opts.Emitter = NewEmitter(nil, nil)
	}
	if opts.Locator == nil {
		opts.Locator = locator.New(locator.ExecutableDir(), locator.DefaultLayout())
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = defaultKillTimeout
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = defaultMaxLineBytes
	}
	return &Supervisor{
		opts:    opts,
		emitter: opts.Emitter,
		status:  Status{State: StateStopped},
	}
}

// Resolve returns the backend path and whether it exists on disk. A missing
// backend still yields a path, for diagnostics.
func (s *Supervisor) Resolve() (string, bool) {
	if s.opts.Path != "" {
		_, err := os.Stat(s.opts.Path)
		return s.opts.Path, err == nil
	}
	return s.opts.Locator.Resolve()
}

// Start locates and spawns the backend and attaches a reader to each of its
// output streams. It returns ErrBackendNotFound when nothing exists at the
// resolved path; any other error means the OS refused to start the process.
func (s *Supervisor) Start(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return 0, ErrAlreadyRunning
	}

	s.reapOrphan()

	path, found := s.Resolve()
	if !found {
		s.emitter.Record(fmt.Sprintf("Backend not found at: %s", path), true)
		s.status = Status{State: StateMissing, Path: path, Error: ErrBackendNotFound.Error()}
		s.emitter.publish(events.EventBackendMissing, map[string]interface{}{"path": path})
		return 0, fmt.Errorf("%w: %s", ErrBackendNotFound, path)
	}

	s.emitter.Record(fmt.Sprintf("Starting backend from: %s", path), false)

	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	cmd.Env = os.Environ()
	configureCommand(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		s.emitter.Record(fmt.Sprintf("Failed to start backend: %v", err), true)
		s.status = Status{State: StateStopped, Path: path, Error: err.Error()}
		return 0, fmt.Errorf("start backend: %w", err)
	}

	h := &handle{
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		path:   path,
		stdout: stdout,
		stderr: stderr,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.handle = h
	s.status = Status{
		State:     StateRunning,
		PID:       h.pid,
		Path:      path,
		StartedAt: time.Now(),
	}

	s.emitter.Record(fmt.Sprintf("Backend started with PID: %d", h.pid), false)
	s.writePIDFile(h)
	s.emitter.publish(events.EventBackendStarted, map[string]interface{}{
		"pid":  h.pid,
		"path": path,
	})

	var g errgroup.Group
	g.Go(func() error { return s.readLines(h, h.stdout, false) })
	g.Go(func() error { return s.readLines(h, h.stderr, true) })
	go s.monitor(h, &g)

	return h.pid, nil
}

// readLines pushes each line of r into the emitter until the stream closes
// or the handle's quit channel is closed. Lines that are not valid UTF-8 are
// dropped.
func (s *Supervisor) readLines(h *handle, r io.Reader, isError bool) error {
	br := bufio.NewReader(r)
	for {
		select {
		case <-h.quit:
			return nil
		default:
		}

		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if utf8.ValidString(line) {
				if len(line) > s.opts.MaxLineBytes {
					line = strings.ToValidUTF8(line[:s.opts.MaxLineBytes], "") + "... [truncated]"
				}
				s.emitter.Record(line, isError)
			}
		}
		if err != nil {
			if err == io.EOF || errors.Is(err, os.ErrClosed) {
				return nil
			}
			stream := "stdout"
			if isError {
				stream = "stderr"
			}
			return fmt.Errorf("read %s: %w", stream, err)
		}
	}
}

// monitor reaps the process as soon as it exits, independently of its output
// streams, then gives the readers drainTimeout to pick up trailing output
// before closing the pipes. Process.Wait is used rather than cmd.Wait, which
// would block until every holder of the pipes had exited.
func (s *Supervisor) monitor(h *handle, g *errgroup.Group) {
	drained := make(chan struct{})
	go func() {
		if err := g.Wait(); err != nil {
			log.Printf("Warning: backend output: %v", err)
		}
		close(drained)
	}()

	state, err := h.cmd.Process.Wait()
	if err == nil && !state.Success() {
		err = &exec.ExitError{ProcessState: state}
	}

	if !await(context.Background(), drained, drainTimeout) {
		log.Printf("Backend (pid %d) exited with its output still held open", h.pid)
	}
	h.stopReading()
	// Closing a pipe under a blocked read is not guaranteed to unblock it on
	// every platform; a stuck reader is abandoned rather than waited on.
	if !await(context.Background(), drained, drainTimeout) {
		log.Printf("Warning: backend (pid %d) output reader did not stop", h.pid)
	}
	close(h.done)

	exitCode := -1
	if state != nil {
		exitCode = state.ExitCode()
	}

	s.mu.Lock()
	requested := s.handle != h
	if !requested {
		s.handle = nil
		s.status.State = StateExited
		s.status.PID = 0
		if err != nil {
			s.status.Error = err.Error()
		}
	}
	s.status.ExitCode = exitCode
	s.status.StoppedAt = time.Now()
	s.mu.Unlock()

	if !requested {
		s.removePIDFile()
	}

	if err != nil {
		s.emitter.Record(fmt.Sprintf("Backend exited: %v", err), !requested)
	} else {
		s.emitter.Record("Backend exited cleanly", false)
	}
	s.emitter.publish(events.EventBackendExited, map[string]interface{}{
		"pid":       h.pid,
		"exit_code": exitCode,
		"requested": requested,
	})
}

// Stop terminates the backend and waits for it to exit. It is a no-op when
// no backend is running and is safe to call any number of times. The wait is
// bounded: the stop signal gets StopTimeout, then the process group is
// killed and its pipes closed, which gets KillTimeout. Kill and wait
// failures are logged, never returned.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()

	s.mu.Lock()
	h := s.handle
	s.handle = nil
	if h == nil {
		s.mu.Unlock()
		return nil
	}
	s.status.State = StateStopping
	s.mu.Unlock()

	log.Printf("Stopping backend (pid %d)", h.pid)

	if err := signalProcess(h.cmd, s.opts.StopSignal); err != nil {
		log.Printf("Warning: signal backend: %v", err)
	}

	if !await(ctx, h.done, s.opts.StopTimeout) {
		if err := killProcess(h.cmd); err != nil {
			log.Printf("Warning: kill backend: %v", err)
		}
		h.stopReading()
		if !await(ctx, h.done, s.opts.KillTimeout) {
			log.Printf("Warning: backend (pid %d) did not exit after kill", h.pid)
		}
	}

	s.mu.Lock()
	s.status.State = StateStopped
	s.status.PID = 0
	s.status.StoppedAt = time.Now()
	s.mu.Unlock()

	s.removePIDFile()
	s.emitter.publish(events.EventBackendStopped, map[string]interface{}{"pid": h.pid})
	return nil
}

// await reports whether done closed within d.
func await(ctx context.Context, done <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Status returns the current backend status.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Running reports whether a backend process is live.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// Logs returns a snapshot of the buffered output.
func (s *Supervisor) Logs() []Entry {
	return s.emitter.Snapshot()
}

// Emitter returns the supervisor's emitter.
func (s *Supervisor) Emitter() *Emitter {
	return s.emitter
}
