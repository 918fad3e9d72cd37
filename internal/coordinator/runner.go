package coordinator

import (
	"fmt"
	"time"

	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
	"github.com/titaniummachine1/chess/internal/search"
)

// Runner wraps one search invocation. No failure escapes Run: a searcher
// error or panic downgrades to a random legal move, and a failure of that
// fallback path downgrades to the empty result. The caller always gets a
// result and a progress string.
type Runner struct {
	Logger   Logger
	Searcher search.Searcher

	// MinThinkTime pads searches that return faster than this, so the
	// caller-visible latency never looks instantaneous. Purely cosmetic.
	MinThinkTime time.Duration
}

func (r *Runner) Run(
	position game.Position,
	depth int,
	budget time.Duration,
	shouldStop func() bool,
) (result Optional[game.Move], progress string) {
	defer func() {
		if rec := recover(); rec != nil {
			// the fallback itself blew up; report and hand back the
			// sentinel so the coordinator still sees a completion
			r.Logger.Println("fallback failed:", rec)
			result = Empty[game.Move]()
			progress = fmt.Sprintf("Search error: %v", rec)
		}
	}()

	start := time.Now()

	if decisive := game.DecisiveMove(position); decisive.HasValue() {
		r.Logger.Println("found decisive move", decisive.Value())
		return decisive, ProgressComplete
	}

	move, err := r.invokeSearcher(position, depth, budget, shouldStop)
	if !IsNil(err) {
		r.Logger.Println("search failed, falling back to a random move:", err.Message())
		move = game.RandomMove(position)
		if move.HasValue() {
			return move, ProgressComplete
		}
		return Empty[game.Move](), ProgressNoMove
	}

	if move.HasValue() {
		if elapsed := time.Since(start); elapsed < r.MinThinkTime {
			time.Sleep(r.MinThinkTime - elapsed)
		}
		r.Logger.Println("search completed in", time.Since(start).Round(time.Millisecond), "- move", move.Value())
		return move, ProgressComplete
	}

	return Empty[game.Move](), ProgressNoMove
}

func (r *Runner) invokeSearcher(
	position game.Position,
	depth int,
	budget time.Duration,
	shouldStop func() bool,
) (move Optional[game.Move], err Error) {
	defer func() {
		if rec := recover(); rec != nil {
			move = Empty[game.Move]()
			err = Errorf("searcher panicked: %v", rec)
		}
	}()
	return r.Searcher.Search(position, search.Params{
		Depth:      depth,
		Duration:   budget,
		ShouldStop: shouldStop,
	})
}
