package services

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrExecutorStopped is returned by Execute once an executor no longer accepts tasks.
var ErrExecutorStopped = errors.New("executor stopped")

// Executor runs tasks in some execution context. A nil error from Execute means
// the task will run; otherwise it never will.
type Executor interface {
	Execute(task func()) error
}

// GoExecutor runs every task on its own goroutine. It is the background context for submissions.
type GoExecutor struct{}

func (GoExecutor) Execute(task func()) error {
	go task()
	return nil
}

// SerialExecutor runs tasks one at a time, in the order they were posted, on the goroutine that called Run.
// It plays the role of the foreground (UI) thread. Every task accepted by Execute runs,
// including ones still queued when Run returns.
type SerialExecutor struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once

	mu      sync.RWMutex
	stopped bool
}

// NewSerialExecutor creates a SerialExecutor with room for buffer pending tasks.
func NewSerialExecutor(buffer int) *SerialExecutor {
	return &SerialExecutor{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Execute queues task, blocking while the queue is full. It returns ErrExecutorStopped
// once the loop has been stopped or its context cancelled.
func (e *SerialExecutor) Execute(task func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return ErrExecutorStopped
	}
	select {
	case <-e.done:
		return ErrExecutorStopped
	case e.tasks <- task:
		return nil
	}
}

// Run drains the queue until ctx is cancelled or Stop is called, then runs
// whatever is still queued before returning.
func (e *SerialExecutor) Run(ctx context.Context) {
	defer e.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case task := <-e.tasks:
			e.runTask(task)
		}
	}
}

// Stop ends Run and makes later Execute calls fail. Safe to call more than once.
// It waits for Execute calls already in progress to return.
func (e *SerialExecutor) Stop() {
	e.once.Do(func() { close(e.done) })
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
}

// shutdown runs the tasks that were accepted before the loop stopped.
func (e *SerialExecutor) shutdown() {
	e.Stop()
	for {
		select {
		case task := <-e.tasks:
			e.runTask(task)
		default:
			return
		}
	}
}

func (e *SerialExecutor) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: [SerialExecutor] Task panicked: %v", r)
		}
	}()
	task()
}

// InlineExecutor runs the task immediately on the calling goroutine.
type InlineExecutor struct{}

func (InlineExecutor) Execute(task func()) error {
	task()
	return nil
}
