package game

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

const maxLineSize = 4 << 20

// Chess is a Board backed by a notnil/chess position.
type Chess struct {
	pos *chess.Position
}

// Placement returns the FEN placement field.
func (g *Chess) Placement() string { return g.pos.Board().String() }

// Apply plays m if it is one of the legal moves of the position.
func (g *Chess) Apply(m Move) (Board, error) {
	cm, ok := m.(*chess.Move)
	if !ok {
		return nil, errors.Wrapf(ErrIllegalMove, "%v is not a chess move", m)
	}
	for _, valid := range g.pos.ValidMoves() {
		if valid.S1() == cm.S1() && valid.S2() == cm.S2() && valid.Promo() == cm.Promo() {
			return &Chess{pos: g.pos.Update(valid)}, nil
		}
	}
	return nil, errors.Wrapf(ErrIllegalMove, "%v in %v", cm, g.pos)
}

// ChessGame is a Game read from PGN.
type ChessGame struct {
	g *chess.Game
}

// NewChessGame wraps a parsed notnil/chess game.
func NewChessGame(g *chess.Game) *ChessGame { return &ChessGame{g: g} }

// Board returns the position before the first move, which honours a FEN tag.
func (g *ChessGame) Board() Board {
	return &Chess{pos: g.g.Positions()[0]}
}

func (g *ChessGame) Moves() []Move {
	moves := g.g.Moves()
	retVal := make([]Move, len(moves))
	for i, m := range moves {
		retVal[i] = m
	}
	return retVal
}

// Tag returns the value of a PGN tag pair, or "" if the game doesn't have it.
func (g *ChessGame) Tag(key string) string {
	if tp := g.g.GetTagPair(key); tp != nil {
		return tp.Value
	}
	return ""
}

// DecodeError reports a PGN record that couldn't be parsed into a game. The source
// stays usable and the next call to Next moves on to the following record.
type DecodeError struct {
	Game int // 1-based position of the record in its source
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("game %d: decode PGN: %v", e.Game, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PGNSource reads games from a PGN stream.
type PGNSource struct {
	lines   *bufio.Scanner
	pending string // first line of the next record, already consumed
	records int
	input   *input
	done    bool
}

// NewPGNSource reads games from r. Compressed input has to be decoded by the caller.
func NewPGNSource(r io.Reader) *PGNSource {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &PGNSource{lines: lines}
}

// OpenPGN opens a PGN file, decompressing .bz2, .zst and .gz files on the fly.
func OpenPGN(path string) (*PGNSource, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	src := NewPGNSource(in)
	src.input = in
	return src, nil
}

// Next returns the next game. A record that can't be parsed gives a *DecodeError;
// the records after it can still be read.
func (s *PGNSource) Next(ctx context.Context) (Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, ErrSourceExhausted
	}

	rec, err := s.readRecord()
	if err != nil {
		s.done = true
		return nil, errors.Wrap(err, "read PGN")
	}
	if rec == "" {
		s.done = true
		return nil, ErrSourceExhausted
	}
	s.records++

	opt, err := chess.PGN(strings.NewReader(rec))
	if err != nil {
		return nil, &DecodeError{Game: s.records, Err: err}
	}
	return NewChessGame(chess.NewGame(opt)), nil
}

// readRecord returns the text of the next game, or "" at the end of the input.
// A record ends where a tag line follows a blank line or movetext. Tag-looking lines
// inside {} comments don't count.
func (s *PGNSource) readRecord() (string, error) {
	var sb strings.Builder
	var hasContent, prevBlank, inMoves bool
	depth := 0

	add := func(line string) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if s.pending != "" {
		add(s.pending)
		s.pending = ""
		hasContent = true
	}

	for s.lines.Scan() {
		line := s.lines.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			prevBlank = true
			if hasContent {
				add(line)
			}
			continue
		}

		isTag := depth == 0 && strings.HasPrefix(trimmed, "[")
		if isTag && hasContent && (prevBlank || inMoves) {
			s.pending = line
			return sb.String(), nil
		}

		add(line)
		hasContent = true
		prevBlank = false
		if !isTag {
			inMoves = true
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth < 0 {
				depth = 0
			}
		}
	}
	if err := s.lines.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// BytesRead returns how many bytes of the underlying file were consumed.
// It is zero for sources made with NewPGNSource.
func (s *PGNSource) BytesRead() int64 {
	if s.input == nil {
		return 0
	}
	return s.input.count()
}

// Size returns the size of the underlying file, or zero if unknown.
func (s *PGNSource) Size() int64 {
	if s.input == nil {
		return 0
	}
	return s.input.size
}

func (s *PGNSource) Close() error {
	if s.input == nil {
		return nil
	}
	return s.input.Close()
}
