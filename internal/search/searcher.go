package search

import (
	"time"

	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
)

type Params struct {
	Depth    int
	Duration time.Duration

	// ShouldStop is polled between root moves. Cooperative only: an
	// implementation that never checks it simply runs to completion.
	ShouldStop func() bool
}

// Searcher computes a move for a position. The duration is advisory: an
// implementation should try to honor it but nothing terminates an
// implementation that overruns.
type Searcher interface {
	Search(position game.Position, params Params) (Optional[game.Move], Error)
}
