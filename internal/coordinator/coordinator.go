package coordinator

import (
	"fmt"
	"sync"
	"time"

	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
	"github.com/titaniummachine1/chess/internal/search"
)

const (
	ProgressIdle     = "Idle"
	ProgressComplete = "Search complete"
	ProgressNoMove   = "No move found"
)

// Coordinator owns the single outstanding search for one game. StartSearch
// returns immediately; callers poll Progress, IsSearchComplete and Result.
//
// Every search carries a generation number. A publication is accepted only
// if its generation is still the latest one issued, so a worker orphaned by
// StartSearch or Reset can't clobber newer state with a stale result.
type Coordinator struct {
	Logger Logger

	executor *Executor
	runner   *Runner

	mu         sync.Mutex
	current    *Task
	generation uint64
	progress   string
	result     Optional[game.Move]
}

type Option func(*Coordinator)

func WithLogger(logger Logger) Option {
	return func(c *Coordinator) {
		c.Logger = logger
	}
}

func WithSearcher(searcher search.Searcher) Option {
	return func(c *Coordinator) {
		c.runner.Searcher = searcher
	}
}

func WithMinThinkTime(d time.Duration) Option {
	return func(c *Coordinator) {
		c.runner.MinThinkTime = d
	}
}

func WithWorkers(workers int) Option {
	return func(c *Coordinator) {
		c.executor.Close()
		c.executor = NewExecutor(workers)
	}
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		Logger:   &SilentLogger,
		executor: NewExecutor(1),
		runner:   &Runner{},
		progress: ProgressIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner.Searcher == nil {
		c.runner.Searcher = search.NewAlphaBetaSearcher()
	}
	if c.runner.Logger == nil {
		c.runner.Logger = c.Logger
	}
	return c
}

// StartSearch cancels any pending search, takes a private copy of the
// position and schedules a new search on the worker pool. It never blocks
// on the search itself.
func (c *Coordinator) StartSearch(position game.Position, depth int, budget time.Duration) Error {
	if depth < 1 {
		return Errorf("depth must be at least 1, got %v", depth)
	}
	if budget <= 0 {
		return Errorf("time budget must be positive, got %v", budget)
	}

	copied := position.Copy()

	// generation is assigned before the task is enqueued, and the worker
	// only reads it after receiving the task
	var generation uint64
	task := NewTask(func(t *Task) {
		move, progress := c.runner.Run(copied, depth, budget, t.Cancelled)
		c.publish(generation, progress, move)
	})

	// cancel, generation bump and install are one atomic step: current
	// must never point at a task another StartSearch already cancelled
	c.mu.Lock()
	cancelledExisting := false
	if c.current != nil && !c.current.Done() {
		c.current.Cancel()
		cancelledExisting = true
	}
	c.generation++
	generation = c.generation
	c.progress = fmt.Sprintf("Searching at depth %d...", depth)
	c.current = task
	c.mu.Unlock()

	// the logger is caller-supplied and may take the caller's own locks,
	// so it is never invoked while c.mu is held
	if cancelledExisting {
		c.Logger.Println("cancelled existing search")
	}

	c.executor.Enqueue(task)

	c.Logger.Println("started search at depth", depth, "with budget", budget)
	return NilError
}

func (c *Coordinator) publish(generation uint64, progress string, move Optional[game.Move]) {
	c.mu.Lock()
	stale := generation != c.generation
	if !stale {
		c.progress = progress
		c.result = move
	}
	c.mu.Unlock()

	if stale {
		c.Logger.Println("discarding result from stale search generation", generation)
	}
}

func (c *Coordinator) Progress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

func (c *Coordinator) Result() Optional[game.Move] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

func (c *Coordinator) IsSearchComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.Done()
}

// Reset detaches the coordinator's bookkeeping. It does not interrupt a
// worker that is already running; bumping the generation means whatever
// that worker eventually publishes is discarded.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.generation++
	c.progress = ProgressIdle
	c.result = Empty[game.Move]()
}

// Close shuts down the worker pool. Only for tests and process teardown.
func (c *Coordinator) Close() {
	c.executor.Close()
}
