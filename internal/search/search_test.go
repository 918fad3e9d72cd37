package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
)

func legalStrings(position game.Position) []string {
	return MapSlice(position.LegalMoves(), func(m game.Move) string {
		return m.String()
	})
}

func TestOpening(t *testing.T) {
	position := game.StartingPosition()
	searcher := NewAlphaBetaSearcher()

	result, err := searcher.Search(position, Params{Depth: 2, Duration: 5 * time.Second})
	assert.True(t, IsNil(err), err)
	assert.True(t, result.HasValue())
	assert.True(t, Contains(legalStrings(position), result.Value().String()))
}

func TestFindsMateInOne(t *testing.T) {
	position, err := game.PositionFromFen("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	assert.True(t, IsNil(err))

	searcher := NewAlphaBetaSearcher()
	result, err := searcher.Search(position, Params{Depth: 2, Duration: 5 * time.Second})
	assert.True(t, IsNil(err), err)
	assert.True(t, result.HasValue())
	assert.Equal(t, "a1a8", result.Value().String())
}

func TestTakesTheQueen(t *testing.T) {
	// undefended queen hanging on d4
	position, err := game.PositionFromFen("k7/8/8/8/3q4/8/3R4/K7 w - - 0 1")
	assert.True(t, IsNil(err))

	searcher := NewAlphaBetaSearcher()
	result, err := searcher.Search(position, Params{Depth: 3, Duration: 5 * time.Second})
	assert.True(t, IsNil(err), err)
	assert.True(t, result.HasValue())
	assert.Equal(t, "d2d4", result.Value().String())
}

func TestNoLegalMoves(t *testing.T) {
	position, err := game.PositionFromFen("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	assert.True(t, IsNil(err))

	searcher := NewAlphaBetaSearcher()
	result, err := searcher.Search(position, Params{Depth: 3, Duration: time.Second})
	assert.True(t, IsNil(err), err)
	assert.True(t, result.IsEmpty())
}

func TestRejectsZeroDepth(t *testing.T) {
	searcher := NewAlphaBetaSearcher()
	_, err := searcher.Search(game.StartingPosition(), Params{Depth: 0})
	assert.False(t, IsNil(err))
}

func TestBudgetCutsDeepSearchShort(t *testing.T) {
	position := game.StartingPosition()
	searcher := NewAlphaBetaSearcher()

	start := time.Now()
	result, err := searcher.Search(position, Params{Depth: 50, Duration: 100 * time.Millisecond})
	elapsed := time.Since(start)

	assert.True(t, IsNil(err), err)
	assert.True(t, result.HasValue())
	assert.True(t, Contains(legalStrings(position), result.Value().String()))
	// well under what a depth-50 search would need
	assert.Less(t, elapsed, 10*time.Second)
}

func TestShouldStopIsHonored(t *testing.T) {
	position := game.StartingPosition()
	searcher := NewAlphaBetaSearcher()

	result, err := searcher.Search(position, Params{
		Depth:      50,
		Duration:   time.Minute,
		ShouldStop: func() bool { return true },
	})
	assert.True(t, IsNil(err), err)
	assert.True(t, result.HasValue())
	assert.True(t, Contains(legalStrings(position), result.Value().String()))
}

func TestEvaluateMaterial(t *testing.T) {
	position, err := game.PositionFromFen("k7/8/8/8/8/8/8/KQ6 w - - 0 1")
	assert.True(t, IsNil(err))

	white := Evaluate(position, position.Player())
	assert.Greater(t, white, 0)

	black := Evaluate(position, position.Player().Other())
	assert.Equal(t, -white, black)
}

func TestEvaluateStartingPositionIsBalanced(t *testing.T) {
	position := game.StartingPosition()
	assert.Equal(t, 0, Evaluate(position, position.Player()))
}
