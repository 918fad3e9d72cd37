package game

import (
	"math/rand"

	"github.com/notnil/chess"
	. "github.com/titaniummachine1/chess/internal/helpers"
)

const StartingFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type Move = *chess.Move

// Position wraps the underlying board state. The wrapper is immutable:
// PerformMove returns a new Position and never touches the receiver, so a
// Position handed to another goroutine stays valid.
type Position struct {
	inner *chess.Position
}

func PositionFromFen(fen string) (Position, Error) {
	option, err := chess.FEN(fen)
	if err != nil {
		return Position{}, Errorf("couldn't parse fen '%v': %w", fen, err)
	}
	g := chess.NewGame(option)
	return Position{inner: g.Position()}, NilError
}

func StartingPosition() Position {
	position, err := PositionFromFen(StartingFen)
	if !IsNil(err) {
		panic(err)
	}
	return position
}

func (p Position) Fen() string {
	return p.inner.String()
}

// Copy returns a position detached from the receiver. Callers that hand a
// position to a worker goroutine copy it first so later moves on their own
// game can't be confused with the searched snapshot.
func (p Position) Copy() Position {
	copied, err := PositionFromFen(p.Fen())
	if !IsNil(err) {
		// a Fen() produced by a valid position always round-trips
		panic(err)
	}
	return copied
}

func (p Position) Player() chess.Color {
	return p.inner.Turn()
}

func (p Position) LegalMoves() []Move {
	return p.inner.ValidMoves()
}

func (p Position) Pieces() map[chess.Square]chess.Piece {
	return p.inner.Board().SquareMap()
}

func (p Position) Draw() string {
	return p.inner.Board().Draw()
}

type Outcome int

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
)

func (p Position) Outcome() Outcome {
	switch p.inner.Status() {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	}
	return Ongoing
}

func (p Position) PerformMove(move Move) (Position, Error) {
	legal := FindInSlice(p.LegalMoves(), func(m Move) bool {
		return m.String() == move.String()
	})
	if legal.IsEmpty() {
		return Position{}, Errorf("illegal move %v in %v", move, p.Fen())
	}
	return Position{inner: p.inner.Update(legal.Value())}, NilError
}

// PerformLegalMove skips legality validation. The move must be one returned
// by LegalMoves on this exact position.
func (p Position) PerformLegalMove(move Move) Position {
	return Position{inner: p.inner.Update(move)}
}

func (p Position) MoveFromString(s string) (Move, Error) {
	move, err := chess.UCINotation{}.Decode(p.inner, s)
	if err != nil {
		return nil, Errorf("couldn't parse move '%v': %w", s, err)
	}
	return move, NilError
}

// MovesForSelection lists the legal moves starting from the given square,
// e.g. "e2" => ["e2e3", "e2e4"].
func (p Position) MovesForSelection(selection string) []string {
	moves := FilterSlice(p.LegalMoves(), func(m Move) bool {
		return m.S1().String() == selection
	})
	return MapSlice(moves, func(m Move) string {
		return m.String()
	})
}

func IsCapture(move Move) bool {
	return move.HasTag(chess.Capture) || move.HasTag(chess.EnPassant)
}

// DecisiveMove is the cheap pre-check for a move that ends the game
// immediately in the mover's favor. It bypasses the full search.
func DecisiveMove(p Position) Optional[Move] {
	for _, move := range p.LegalMoves() {
		if p.inner.Update(move).Status() == chess.Checkmate {
			return Some(move)
		}
	}
	return Empty[Move]()
}

// RandomMove picks uniformly among the legal moves. Empty if there are none.
func RandomMove(p Position) Optional[Move] {
	moves := p.LegalMoves()
	if len(moves) == 0 {
		return Empty[Move]()
	}
	return Some(moves[rand.Intn(len(moves))])
}
