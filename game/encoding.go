package game

import (
	"fmt"
	"strings"
)

// Piece codes. Lowercase (black) pieces take 1-6 and uppercase (white) pieces take 7-12,
// each in pawn, knight, bishop, rook, queen, king order.
const (
	Empty int8 = iota
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing

	MaxCode = WhiteKing
)

const pieceLetters = " pnbrqkPNBRQK"

var codes = map[rune]int8{
	'p': BlackPawn,
	'n': BlackKnight,
	'b': BlackBishop,
	'r': BlackRook,
	'q': BlackQueen,
	'k': BlackKing,
	'P': WhitePawn,
	'N': WhiteKnight,
	'B': WhiteBishop,
	'R': WhiteRook,
	'Q': WhiteQueen,
	'K': WhiteKing,
}

// Position is a board encoded square by square in FEN order, a8 first and h1 last.
type Position [Squares]int8

// EncodingError reports a placement string that can't be encoded.
// Char is zero when the placement describes fewer than 64 squares.
type EncodingError struct {
	Placement string
	Char      rune
	Offset    int
}

func (e *EncodingError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("placement %q describes fewer than %d squares", e.Placement, Squares)
	}
	return fmt.Sprintf("placement %q: unexpected %q at offset %d", e.Placement, e.Char, e.Offset)
}

// Encode converts the piece placement field of a FEN into a Position.
func Encode(placement string) (Position, error) {
	var pos Position
	sq := 0
	for i, c := range placement {
		switch {
		case c == '/':
			continue
		case c >= '1' && c <= '8':
			n := int(c - '0')
			if sq+n > Squares {
				return Position{}, &EncodingError{Placement: placement, Char: c, Offset: i}
			}
			// the array is zeroed already
			sq += n
		default:
			code, ok := codes[c]
			if !ok || sq >= Squares {
				return Position{}, &EncodingError{Placement: placement, Char: c, Offset: i}
			}
			pos[sq] = code
			sq++
		}
	}
	if sq != Squares {
		return Position{}, &EncodingError{Placement: placement, Offset: len(placement)}
	}
	return pos, nil
}

// String renders the position back to FEN placement notation.
func (p Position) String() string {
	var sb strings.Builder
	for rank := 0; rank < RowNum; rank++ {
		if rank > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for file := 0; file < ColNum; file++ {
			c := p[rank*ColNum+file]
			if c == Empty {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pieceLetters[c])
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}

// Float32s returns the codes as neural input.
func (p Position) Float32s() []float32 {
	retVal := make([]float32, Squares)
	for i, c := range p {
		retVal[i] = float32(c)
	}
	return retVal
}

// Ints returns the codes as a plain int slice.
func (p Position) Ints() []int {
	retVal := make([]int, Squares)
	for i, c := range p {
		retVal[i] = int(c)
	}
	return retVal
}
