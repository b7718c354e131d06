package game

import (
	"context"

	"github.com/pkg/errors"
)

const (
	RowNum  = 8
	ColNum  = 8
	Squares = RowNum * ColNum
)

var (
	// ErrSourceExhausted is returned by Source.Next once every game has been read.
	// It marks normal termination and is not a failure.
	ErrSourceExhausted = errors.New("game source exhausted")

	// ErrIllegalMove is returned by Board.Apply when the move is not legal in the position.
	ErrIllegalMove = errors.New("illegal move")
)

// Move is a single move of a game. String returns it in UCI notation.
type Move interface {
	String() string
}

// Board is a read-only snapshot of the pieces on the 64 squares.
type Board interface {
	Apply(m Move) (Board, error) // returns the board after m has been played. The receiver is untouched.
	Placement() string           // returns the piece placement field of the FEN.
}

// Game is one record from a Source.
type Game interface {
	Board() Board  // returns the starting position.
	Moves() []Move // returns the mainline moves in the order they were played.
}

// Source yields games one at a time.
type Source interface {
	// Next returns the next game, or ErrSourceExhausted when there are none left.
	Next(ctx context.Context) (Game, error)
}
