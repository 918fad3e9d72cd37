package coordinator

import (
	"sync"
	"sync/atomic"
)

// Task is the handle to one submitted search body. Cancellation is
// best-effort: a task cancelled before a worker picks it up never runs, a
// task already running runs to completion.
type Task struct {
	run func(*Task)

	cancelled atomic.Bool
	started   atomic.Bool
	done      atomic.Bool
}

func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

func (t *Task) Started() bool {
	return t.started.Load()
}

func (t *Task) Done() bool {
	return t.done.Load()
}

// Executor runs submitted bodies on a fixed set of worker goroutines.
// The default pool size is 1, which also serializes the search bodies.
type Executor struct {
	tasks chan *Task

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewExecutor(workers int) *Executor {
	e := &Executor{
		tasks: make(chan *Task, 64),
	}
	for i := 0; i < clampWorkers(workers); i++ {
		e.wg.Add(1)
		go e.work()
	}
	return e
}

func clampWorkers(workers int) int {
	if workers < 1 {
		return 1
	}
	return workers
}

func (e *Executor) work() {
	defer e.wg.Done()
	for task := range e.tasks {
		if task.Cancelled() {
			// never ran; the task stays pending forever
			continue
		}
		task.started.Store(true)
		task.run(task)
		task.done.Store(true)
	}
}

// NewTask builds a task without scheduling it, so a caller can hand out
// the handle before any worker can touch it.
func NewTask(run func(*Task)) *Task {
	return &Task{run: run}
}

// Enqueue hands a constructed task to the workers. It never blocks the
// caller as long as fewer than the queue's worth of tasks are outstanding,
// which a single coordinator guarantees by replacing its one task at a time.
func (e *Executor) Enqueue(task *Task) {
	e.tasks <- task
}

func (e *Executor) Submit(run func(*Task)) *Task {
	task := NewTask(run)
	e.Enqueue(task)
	return task
}

// Close stops the workers once queued tasks have drained. Submitting after
// Close panics.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		close(e.tasks)
	})
	e.wg.Wait()
}
