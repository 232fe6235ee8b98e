package daemon

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// WorkerState is the lifecycle state of the listener worker.
type WorkerState int32

const (
	WorkerStopped WorkerState = iota
	WorkerStarting
	WorkerRunning
	WorkerStopping
)

func (s WorkerState) String() string {
	switch s {
	case WorkerStopped:
		return "stopped"
	case WorkerStarting:
		return "starting"
	case WorkerRunning:
		return "running"
	case WorkerStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// RunFunc is the body of the worker goroutine. It must return once quit is
// closed.
type RunFunc func(quit <-chan struct{}) error

// Worker owns at most one background goroutine. Start and stop transitions
// are serialized by mu; state is readable without it.
type Worker struct {
	run    RunFunc
	logger *slog.Logger

	state atomic.Int32

	mu   sync.Mutex
	quit chan struct{}
	done chan struct{}
}

// NewWorker creates a stopped worker.
func NewWorker(run RunFunc, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{run: run, logger: logger}
}

// State returns the current state.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// EnsureRunning starts the goroutine unless it is already starting, running
// or stopping. It returns true if this call started it. The common case costs
// a single atomic load.
func (w *Worker) EnsureRunning() bool {
	return w.EnsureRunningWhen(nil)
}

// EnsureRunningWhen is EnsureRunning with a precondition. ok is evaluated
// under the transition lock, so a Stop that follows a change making ok false
// cannot be undone by a caller that decided to start before the change.
func (w *Worker) EnsureRunningWhen(ok func() bool) bool {
	// A stopping worker counts as alive: Stop holds mu until the goroutine
	// has exited and callers must not queue behind it.
	if w.alive() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.alive() {
		return false
	}
	if ok != nil && !ok() {
		return false
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	w.quit = quit
	w.done = done
	w.state.Store(int32(WorkerStarting))

	go w.loop(quit, done)
	return true
}

func (w *Worker) alive() bool {
	return w.State() != WorkerStopped
}

func (w *Worker) loop(quit, done chan struct{}) {
	w.state.CompareAndSwap(int32(WorkerStarting), int32(WorkerRunning))

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("worker panic recovered", "panic", r)
			}
		}()
		return w.run(quit)
	}()
	if err != nil {
		w.logger.Error("worker exited", "error", err)
	}
	close(done)

	// Exited on its own: let the next EnsureRunning start a fresh one. A
	// concurrent Stop has already moved on to a new generation.
	w.mu.Lock()
	if w.done == done {
		w.quit = nil
		w.done = nil
		w.state.Store(int32(WorkerStopped))
	}
	w.mu.Unlock()
}

// Stop signals the goroutine to quit and blocks until it has exited. It is a
// no-op on a stopped worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done == nil {
		return
	}

	w.state.Store(int32(WorkerStopping))
	close(w.quit)
	<-w.done

	w.quit = nil
	w.done = nil
	w.state.Store(int32(WorkerStopped))
}
