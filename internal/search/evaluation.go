package search

import (
	"github.com/notnil/chess"
	"github.com/titaniummachine1/chess/internal/game"
)

const Inf int = 999999

const mateScore int = 100000

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0, // the king's value is implied by checkmate
}

func centerDistance(square chess.Square) int {
	file := int(square.File())
	rank := int(square.Rank())
	df := axisDistance(file)
	dr := axisDistance(rank)
	if df > dr {
		return df
	}
	return dr
}

func axisDistance(coord int) int {
	if coord <= 3 {
		return 3 - coord
	}
	return coord - 4
}

func squareBonus(piece chess.Piece, square chess.Square) int {
	switch piece.Type() {
	case chess.Pawn, chess.Knight, chess.Bishop:
		return (3 - centerDistance(square)) * 5
	}
	return 0
}

// Evaluate scores the position from player's perspective, in centipawns.
// Material plus a small centralization bonus for the minor pieces and pawns.
func Evaluate(position game.Position, player chess.Color) int {
	score := 0
	for square, piece := range position.Pieces() {
		value := pieceValues[piece.Type()] + squareBonus(piece, square)
		if piece.Color() == player {
			score += value
		} else {
			score -= value
		}
	}
	return score
}
