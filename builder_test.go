package chesspairs

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/chesspairs/game"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgnGames = `[Event "Casual"]
[Site "?"]
[Date "2024.01.01"]
[Round "1"]
[White "White"]
[Black "Black"]
[Result "1-0"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0

[Event "Casual"]
[Site "?"]
[Date "2024.01.02"]
[Round "2"]
[White "White"]
[Black "Black"]
[Result "1/2-1/2"]

1. d4 d5 1/2-1/2

[Event "Casual"]
[Site "?"]
[Date "2024.01.03"]
[Round "3"]
[White "White"]
[Black "Black"]
[Result "0-1"]

1. f3 e5 2. g4 Qh4# 0-1

`

// fakeBoard is a board whose placement is a row of squares filled up to n, one per
// move played. Moves named "bad" can't be applied and boards past badAt can't be encoded.
type fakeBoard struct {
	n     int
	badAt int
}

type fakeMove string

func (m fakeMove) String() string { return string(m) }

func (b fakeBoard) Apply(m game.Move) (game.Board, error) {
	if m.String() == "bad" {
		return nil, game.ErrIllegalMove
	}
	return fakeBoard{n: b.n + 1, badAt: b.badAt}, nil
}

func (b fakeBoard) Placement() string {
	if b.badAt > 0 && b.n >= b.badAt {
		return "x7/8/8/8/8/8/8/8"
	}
	ranks := make([]string, 8)
	for i := range ranks {
		ranks[i] = "8"
	}
	if b.n > 0 {
		ranks[7] = strings.Repeat("P", b.n)
		if b.n < 8 {
			ranks[7] += string(rune('0' + 8 - b.n))
		}
	}
	return strings.Join(ranks, "/")
}

type fakeGame struct {
	board game.Board
	moves []game.Move
}

func (g fakeGame) Board() game.Board  { return g.board }
func (g fakeGame) Moves() []game.Move { return g.moves }

type fakeSource struct {
	games []game.Game
	err   error
	read  int
}

func (s *fakeSource) Next(ctx context.Context) (game.Game, error) {
	if s.read == len(s.games) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, game.ErrSourceExhausted
	}
	s.read++
	return s.games[s.read-1], nil
}

func moves(names ...string) []game.Move {
	retVal := make([]game.Move, len(names))
	for i, n := range names {
		retVal[i] = fakeMove(n)
	}
	return retVal
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestAccumulatePairsAdjacentPositions(t *testing.T) {
	pairs, err := Accumulate(fakeBoard{}, moves("a", "b", "c"))
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	for i, p := range pairs {
		assert.Equal(t, strings.Count(p.Before.String(), "P"), i)
		assert.Equal(t, strings.Count(p.After.String(), "P"), i+1)
		if i > 0 {
			assert.Equal(t, pairs[i-1].After, p.Before)
		}
	}
}

func TestAccumulateNoMoves(t *testing.T) {
	pairs, err := Accumulate(fakeBoard{}, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestAccumulateMoveError(t *testing.T) {
	pairs, err := Accumulate(fakeBoard{}, moves("a", "bad", "c"))
	assert.Nil(t, pairs)

	var mErr *MoveApplicationError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, 1, mErr.Index)
	assert.Equal(t, "bad", mErr.Move)
	assert.True(t, errors.Is(err, game.ErrIllegalMove))
}

func TestAccumulateEncodingError(t *testing.T) {
	pairs, err := Accumulate(fakeBoard{badAt: 2}, moves("a", "b", "c"))
	assert.Nil(t, pairs)

	var encErr *game.EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, 'x', encErr.Char)
	assert.Contains(t, err.Error(), "after move 1")
}

func TestBuildFromPGN(t *testing.T) {
	src := game.NewPGNSource(strings.NewReader(pgnGames))
	ds, err := New(src, DefaultConfig(), WithLogger(quietLogger())).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Games)
	assert.Equal(t, []int{7, 2, 4}, ds.Plies)
	require.Len(t, ds.Pairs, 13)
	assert.Zero(t, ds.SkippedCount())

	start, err := game.Encode("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR")
	require.NoError(t, err)
	assert.Equal(t, start, ds.Pairs[0].Before)
	assert.Equal(t, start, ds.Pairs[7].Before)
	assert.Equal(t, start, ds.Pairs[9].Before)

	mate, err := game.Encode("r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR")
	require.NoError(t, err)
	assert.Equal(t, mate, ds.Pairs[6].After)

	// pairs chain within a game and restart at the next one
	for i := 1; i < len(ds.Pairs); i++ {
		if i == 7 || i == 9 {
			continue
		}
		assert.Equal(t, ds.Pairs[i-1].After, ds.Pairs[i].Before, "pair %d", i)
	}
	for _, p := range ds.Pairs {
		for _, pos := range []game.Position{p.Before, p.After} {
			for _, c := range pos {
				assert.True(t, c >= 0 && c <= game.MaxCode)
			}
		}
	}
}

func TestBuildMatchesPerGameConcatenation(t *testing.T) {
	games := []game.Game{
		fakeGame{board: fakeBoard{}, moves: moves("a", "b")},
		fakeGame{board: fakeBoard{}, moves: nil},
		fakeGame{board: fakeBoard{n: 3}, moves: moves("a", "b", "c")},
	}

	var want []Pair
	for _, g := range games {
		pairs, err := Accumulate(g.Board(), g.Moves())
		require.NoError(t, err)
		want = append(want, pairs...)
	}

	ds, err := New(&fakeSource{games: games}, DefaultConfig(), WithLogger(quietLogger())).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, ds.Pairs)
	assert.Equal(t, 3, ds.Games)
	assert.Equal(t, []int{2, 0, 3}, ds.Plies)
}

func TestBuildAbortsOnInvalidGame(t *testing.T) {
	src := &fakeSource{games: []game.Game{
		fakeGame{board: fakeBoard{}, moves: moves("a")},
		fakeGame{board: fakeBoard{}, moves: moves("a", "bad")},
		fakeGame{board: fakeBoard{}, moves: moves("a")},
	}}
	ds, err := New(src, DefaultConfig(), WithLogger(quietLogger())).Build(context.Background())
	require.Error(t, err)

	var mErr *MoveApplicationError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, 2, mErr.Game)
	assert.Equal(t, 1, mErr.Index)
	assert.Len(t, ds.Pairs, 1)
	assert.Equal(t, 2, src.read)
}

func TestBuildSkipsInvalidGames(t *testing.T) {
	src := &fakeSource{games: []game.Game{
		fakeGame{board: fakeBoard{}, moves: moves("a")},
		fakeGame{board: fakeBoard{}, moves: moves("a", "bad")},
		fakeGame{board: fakeBoard{badAt: 1}, moves: moves("a")},
		fakeGame{board: fakeBoard{}, moves: moves("a", "b")},
	}}
	conf := DefaultConfig()
	conf.SkipInvalid = true

	logger, hook := test.NewNullLogger()
	ds, err := New(src, conf, WithLogger(logger)).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Games)
	assert.Len(t, ds.Pairs, 3)
	assert.Equal(t, []int{1, 2}, ds.Plies)
	require.Equal(t, 2, ds.SkippedCount())
	assert.Contains(t, ds.Skipped.Errors[0].Error(), "game 2")
	assert.Contains(t, ds.Skipped.Errors[1].Error(), "game 3")

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestBuildMaxGames(t *testing.T) {
	src := &fakeSource{games: []game.Game{
		fakeGame{board: fakeBoard{}, moves: moves("a")},
		fakeGame{board: fakeBoard{}, moves: moves("a")},
		fakeGame{board: fakeBoard{}, moves: moves("a")},
	}}
	conf := DefaultConfig()
	conf.MaxGames = 2
	ds, err := New(src, conf, WithLogger(quietLogger())).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Games)
	assert.Equal(t, 2, src.read)
}

func TestBuildSourceError(t *testing.T) {
	src := &fakeSource{
		games: []game.Game{fakeGame{board: fakeBoard{}, moves: moves("a")}},
		err:   errors.New("corrupt record"),
	}
	ds, err := New(src, DefaultConfig(), WithLogger(quietLogger())).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read game 2")
	assert.Len(t, ds.Pairs, 1)
}

// cancelSource cancels its context after handing out a number of games.
type cancelSource struct {
	fakeSource
	after  int
	cancel context.CancelFunc
}

func (s *cancelSource) Next(ctx context.Context) (game.Game, error) {
	g, err := s.fakeSource.Next(ctx)
	if s.read == s.after {
		s.cancel()
	}
	return g, err
}

func TestBuildStopsBetweenGamesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancelSource{
		fakeSource: fakeSource{games: []game.Game{
			fakeGame{board: fakeBoard{}, moves: moves("a", "b")},
			fakeGame{board: fakeBoard{}, moves: moves("a", "b", "c")},
			fakeGame{board: fakeBoard{}, moves: moves("a")},
		}},
		after:  2,
		cancel: cancel,
	}
	ds, err := New(src, DefaultConfig(), WithLogger(quietLogger())).Build(ctx)
	assert.Equal(t, context.Canceled, err)

	// the game in flight when the context was cancelled is finished
	assert.Equal(t, 2, ds.Games)
	assert.Len(t, ds.Pairs, 5)
}

type recordingReporter struct {
	updates  []int
	finished int
	finishes int
}

func (r *recordingReporter) Update(games int, _ time.Duration) { r.updates = append(r.updates, games) }

func (r *recordingReporter) Finish(games int, _ time.Duration) {
	r.finished = games
	r.finishes++
}

func TestBuildReportsProgress(t *testing.T) {
	src := &fakeSource{games: []game.Game{
		fakeGame{board: fakeBoard{}, moves: moves("a")},
		fakeGame{board: fakeBoard{}, moves: nil},
	}}
	r := &recordingReporter{}
	_, err := New(src, DefaultConfig(), WithReporter(r), WithLogger(quietLogger())).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, r.updates)
	assert.Equal(t, 2, r.finished)
	assert.Equal(t, 1, r.finishes)
}

func TestBuildFinishesReporterOnError(t *testing.T) {
	sources := map[string]game.Source{
		"invalid game": &fakeSource{games: []game.Game{
			fakeGame{board: fakeBoard{}, moves: moves("a")},
			fakeGame{board: fakeBoard{}, moves: moves("bad")},
		}},
		"read error": &fakeSource{
			games: []game.Game{fakeGame{board: fakeBoard{}, moves: moves("a")}},
			err:   errors.New("corrupt record"),
		},
	}
	for name, src := range sources {
		r := &recordingReporter{}
		logger, hook := test.NewNullLogger()
		ds, err := New(src, DefaultConfig(), WithReporter(r), WithLogger(logger)).Build(context.Background())
		require.Error(t, err, name)
		assert.Equal(t, 1, r.finishes, name)
		assert.Equal(t, ds.Games, r.finished, name)
		assert.Equal(t, "conversion finished", hook.LastEntry().Message, name)
	}
}

func TestBuildFinishesReporterOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &recordingReporter{}
	src := &fakeSource{games: []game.Game{fakeGame{board: fakeBoard{}, moves: moves("a")}}}
	_, err := New(src, DefaultConfig(), WithReporter(r), WithLogger(quietLogger())).Build(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, r.finishes)
	assert.Zero(t, src.read)
}

const undecodableSecond = `[Event "Casual"]
[Round "1"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0

[Event "Casual"]
[Round "2"]

1. e4 e5 2. Ke3 *

[Event "Casual"]
[Round "3"]

1. f3 e5 2. g4 Qh4# 0-1`

func TestBuildSkipsUndecodablePGN(t *testing.T) {
	conf := DefaultConfig()
	conf.SkipInvalid = true
	src := game.NewPGNSource(strings.NewReader(undecodableSecond))
	ds, err := New(src, conf, WithLogger(quietLogger())).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Games)
	assert.Equal(t, []int{7, 4}, ds.Plies)
	assert.Len(t, ds.Pairs, 11)
	require.Equal(t, 1, ds.SkippedCount())

	var decErr *game.DecodeError
	require.True(t, errors.As(ds.Skipped.Errors[0], &decErr))
	assert.Equal(t, 2, decErr.Game)
}

func TestBuildAbortsOnUndecodablePGN(t *testing.T) {
	src := game.NewPGNSource(strings.NewReader(undecodableSecond))
	ds, err := New(src, DefaultConfig(), WithLogger(quietLogger())).Build(context.Background())
	require.Error(t, err)

	var decErr *game.DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, 2, decErr.Game)
	assert.Contains(t, err.Error(), "game 2")
	assert.Equal(t, []int{7}, ds.Plies)
}

func TestBuildLastGameWithoutTrailingNewline(t *testing.T) {
	input := strings.TrimRight(pgnGames, "\n")
	src := game.NewPGNSource(strings.NewReader(input))
	ds, err := New(src, DefaultConfig(), WithLogger(quietLogger())).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{7, 2, 4}, ds.Plies)
	assert.Len(t, ds.Pairs, 13)
}
