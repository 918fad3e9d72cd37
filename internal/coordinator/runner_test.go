package coordinator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
	"github.com/titaniummachine1/chess/internal/search"
)

const mateInOneFen = "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"
const stalemateFen = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
const onlyMoveFen = "8/8/8/8/8/6k1/5p2/5K2 w - - 0 1"

// stubSearcher is a deterministic stand-in for the engine.
type stubSearcher struct {
	calls atomic.Int32

	move  func(position game.Position) Optional[game.Move]
	fail  bool
	boom  bool
	sleep time.Duration
}

var _ search.Searcher = (*stubSearcher)(nil)

func (s *stubSearcher) Search(position game.Position, params search.Params) (Optional[game.Move], Error) {
	s.calls.Add(1)
	if s.sleep > 0 {
		time.Sleep(s.sleep)
	}
	if s.boom {
		panic("stub searcher exploded")
	}
	if s.fail {
		return Empty[game.Move](), Errorf("stub searcher failed")
	}
	if s.move != nil {
		return s.move(position), NilError
	}
	return Empty[game.Move](), NilError
}

func firstLegalMove(position game.Position) Optional[game.Move] {
	moves := position.LegalMoves()
	if len(moves) == 0 {
		return Empty[game.Move]()
	}
	return Some(moves[0])
}

func newRunner(searcher search.Searcher) *Runner {
	return &Runner{
		Logger:   &SilentLogger,
		Searcher: searcher,
	}
}

func isLegalIn(position game.Position, move game.Move) bool {
	return Contains(MapSlice(position.LegalMoves(), func(m game.Move) string {
		return m.String()
	}), move.String())
}

func TestRunReturnsLegalMove(t *testing.T) {
	position := game.StartingPosition()
	stub := &stubSearcher{move: firstLegalMove}

	result, progress := newRunner(stub).Run(position, 3, time.Second, nil)
	assert.True(t, result.HasValue())
	assert.True(t, isLegalIn(position, result.Value()))
	assert.Equal(t, ProgressComplete, progress)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestRunWithNoLegalMoves(t *testing.T) {
	position, err := game.PositionFromFen(stalemateFen)
	assert.True(t, IsNil(err))

	result, progress := newRunner(&stubSearcher{}).Run(position, 3, time.Second, nil)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, ProgressNoMove, progress)
}

func TestRunFallsBackOnSearchError(t *testing.T) {
	position := game.StartingPosition()
	stub := &stubSearcher{fail: true}

	result, progress := newRunner(stub).Run(position, 3, time.Second, nil)
	assert.True(t, result.HasValue())
	assert.True(t, isLegalIn(position, result.Value()))
	assert.Equal(t, ProgressComplete, progress)
}

func TestRunFallsBackOnSearchPanic(t *testing.T) {
	position := game.StartingPosition()
	stub := &stubSearcher{boom: true}

	result, progress := newRunner(stub).Run(position, 3, time.Second, nil)
	assert.True(t, result.HasValue())
	assert.True(t, isLegalIn(position, result.Value()))
	assert.Equal(t, ProgressComplete, progress)
}

func TestRunDecisivePrecheckSkipsSearcher(t *testing.T) {
	position, err := game.PositionFromFen(mateInOneFen)
	assert.True(t, IsNil(err))
	stub := &stubSearcher{move: firstLegalMove}

	result, progress := newRunner(stub).Run(position, 4, time.Second, nil)
	assert.True(t, result.HasValue())
	assert.Equal(t, "a1a8", result.Value().String())
	assert.Equal(t, ProgressComplete, progress)
	assert.Equal(t, int32(0), stub.calls.Load())
}

func TestRunDoesNotEnforceBudget(t *testing.T) {
	position := game.StartingPosition()
	stub := &stubSearcher{move: firstLegalMove, sleep: 50 * time.Millisecond}

	// budget far below the stub's sleep; the move is still accepted
	result, progress := newRunner(stub).Run(position, 3, time.Millisecond, nil)
	assert.True(t, result.HasValue())
	assert.Equal(t, ProgressComplete, progress)
}

func TestRunPadsToMinimumThinkTime(t *testing.T) {
	position := game.StartingPosition()
	runner := newRunner(&stubSearcher{move: firstLegalMove})
	runner.MinThinkTime = 80 * time.Millisecond

	start := time.Now()
	result, _ := runner.Run(position, 3, time.Second, nil)
	assert.True(t, result.HasValue())
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestRunSearcherReturningNothingIsNoMove(t *testing.T) {
	position := game.StartingPosition()
	stub := &stubSearcher{}

	result, progress := newRunner(stub).Run(position, 3, time.Second, nil)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, ProgressNoMove, progress)
}
