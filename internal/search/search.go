package search

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/notnil/chess"
	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
)

// AlphaBetaSearcher is a plain negamax alpha-beta searcher with iterative
// deepening. The time budget is honored by a flag the search polls between
// moves, so an iteration in flight finishes before the cutoff takes effect.
type AlphaBetaSearcher struct {
	Logger Logger

	outOfTime atomic.Bool

	DebugTotalEvaluations int
}

var _ Searcher = (*AlphaBetaSearcher)(nil)

func NewAlphaBetaSearcher() *AlphaBetaSearcher {
	return &AlphaBetaSearcher{Logger: &SilentLogger}
}

func (s *AlphaBetaSearcher) Search(position game.Position, params Params) (Optional[game.Move], Error) {
	if params.Depth < 1 {
		return Empty[game.Move](), Errorf("depth must be at least 1, got %v", params.Depth)
	}

	s.outOfTime.Store(false)
	if params.Duration > 0 {
		timer := time.AfterFunc(params.Duration, func() {
			s.outOfTime.Store(true)
		})
		defer timer.Stop()
	}

	moves := position.LegalMoves()
	if len(moves) == 0 {
		return Empty[game.Move](), NilError
	}

	player := position.Player()
	best := moves[0]

	for depth := 1; depth <= params.Depth; depth++ {
		move, score, completed := s.searchToDepth(position, player, moves, depth, params.ShouldStop)
		if completed {
			best = move
			s.Logger.Println(
				"evaluated to depth", depth,
				"- total evals", s.DebugTotalEvaluations,
				"- best move", best,
				"- score", score)
		}
		if s.stopped(params.ShouldStop) {
			break
		}
	}

	return Some(best), NilError
}

func (s *AlphaBetaSearcher) stopped(shouldStop func() bool) bool {
	return s.outOfTime.Load() || (shouldStop != nil && shouldStop())
}

func (s *AlphaBetaSearcher) searchToDepth(
	position game.Position,
	player chess.Color,
	moves []game.Move,
	depth int,
	shouldStop func() bool,
) (game.Move, int, bool) {
	orderCapturesFirst(moves)

	best := moves[0]
	alpha := -Inf
	for _, move := range moves {
		if s.stopped(shouldStop) {
			// incomplete iteration: the caller keeps the previous one's move
			return best, alpha, false
		}
		next := position.PerformLegalMove(move)
		score := -s.evaluateSubtree(next, player.Other(), -Inf, -alpha, depth-1)
		if score > alpha {
			alpha = score
			best = move
		}
	}
	return best, alpha, true
}

func (s *AlphaBetaSearcher) evaluateSubtree(
	position game.Position,
	player chess.Color,
	alpha int,
	beta int,
	depth int,
) int {
	moves := position.LegalMoves()
	if len(moves) == 0 {
		if position.Outcome() == game.Checkmate {
			// prefer faster mates
			return -mateScore - depth
		}
		return 0 // stalemate
	}
	if depth <= 0 {
		s.DebugTotalEvaluations++
		return Evaluate(position, player)
	}

	orderCapturesFirst(moves)
	for _, move := range moves {
		next := position.PerformLegalMove(move)
		score := -s.evaluateSubtree(next, player.Other(), -beta, -alpha, depth-1)
		if score >= beta {
			// the enemy will avoid this line
			return beta
		}
		if score > alpha {
			alpha = score
		}
		if s.outOfTime.Load() {
			break
		}
	}
	return alpha
}

func orderCapturesFirst(moves []game.Move) {
	sort.SliceStable(moves, func(i, j int) bool {
		return game.IsCapture(moves[i]) && !game.IsCapture(moves[j])
	})
}
