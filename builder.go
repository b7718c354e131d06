package chesspairs

import (
	"context"
	"time"

	"github.com/chesspairs/game"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Builder is the conversion loop. It pulls games from a Source and turns every game into
// its consecutive-position pairs.
type Builder struct {
	src      game.Source
	conf     Config
	reporter Reporter
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithReporter sets the progress display. The default shows nothing.
func WithReporter(r Reporter) Option { return func(b *Builder) { b.reporter = r } }

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option { return func(b *Builder) { b.logger = l } }

// New creates a Builder reading from src.
func New(src game.Source, conf Config, opts ...Option) *Builder {
	b := &Builder{
		src:      src,
		conf:     conf,
		reporter: NopReporter{},
		logger:   logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build consumes the source until it is exhausted and returns the dataset.
//
// ctx is only checked between games. When it is done, Build returns what it has so far
// together with ctx.Err(). Without SkipInvalid the first game that fails to decode or
// replay aborts the run; with it, failing games are dropped whole and recorded in
// Dataset.Skipped. The reporter is finished on every return path.
func (b *Builder) Build(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}
	start := b.now()
	defer func() {
		ds.Elapsed = b.now().Sub(start)
		b.reporter.Finish(ds.Games, ds.Elapsed)
		b.logger.WithFields(logrus.Fields{
			"games":   ds.Games,
			"pairs":   len(ds.Pairs),
			"skipped": ds.SkippedCount(),
			"seconds": ds.Elapsed.Seconds(),
		}).Info("conversion finished")
	}()

	for b.conf.MaxGames == 0 || ds.Games < b.conf.MaxGames {
		if err := ctx.Err(); err != nil {
			b.logger.WithField("games", ds.Games).Warn("conversion interrupted")
			return ds, err
		}

		g, err := b.src.Next(ctx)
		if err == game.ErrSourceExhausted {
			break
		}
		var decErr *game.DecodeError
		switch {
		case errors.As(err, &decErr):
			ds.Games++
			decErr.Game = ds.Games
			if err = b.skip(ds, decErr); err != nil {
				return ds, err
			}
		case err != nil:
			if cerr := ctx.Err(); cerr != nil && errors.Cause(err) == cerr {
				b.logger.WithField("games", ds.Games).Warn("conversion interrupted")
				return ds, cerr
			}
			return ds, errors.Wrapf(err, "read game %d", ds.Games+1)
		default:
			ds.Games++
			moves := g.Moves()
			pairs, err := Accumulate(g.Board(), moves)
			if err != nil {
				if mErr, ok := errors.Cause(err).(*MoveApplicationError); ok {
					mErr.Game = ds.Games
				} else {
					err = errors.WithMessagef(err, "game %d", ds.Games)
				}
				if err = b.skip(ds, err); err != nil {
					return ds, err
				}
			} else {
				ds.Pairs = append(ds.Pairs, pairs...)
				ds.Plies = append(ds.Plies, len(moves))
			}
		}

		b.reporter.Update(ds.Games, b.now().Sub(start))
	}
	return ds, nil
}

// skip records a failed game under SkipInvalid and returns err unchanged otherwise.
func (b *Builder) skip(ds *Dataset, err error) error {
	if !b.conf.SkipInvalid {
		return err
	}
	b.logger.WithField("game", ds.Games).WithError(err).Warn("skipping game")
	ds.Skipped = multierror.Append(ds.Skipped, err)
	return nil
}

// Accumulate replays moves from b and returns one pair per move, pairing each position
// with the one after it. A game without moves yields no pairs. On error no pairs are
// returned.
func Accumulate(b game.Board, moves []game.Move) ([]Pair, error) {
	positions := make([]game.Position, 0, len(moves)+1)

	pos, err := game.Encode(b.Placement())
	if err != nil {
		return nil, errors.WithMessage(err, "initial position")
	}
	positions = append(positions, pos)

	for i, m := range moves {
		if b, err = b.Apply(m); err != nil {
			return nil, &MoveApplicationError{Index: i, Move: m.String(), Err: err}
		}
		if pos, err = game.Encode(b.Placement()); err != nil {
			return nil, errors.WithMessagef(err, "after move %d (%s)", i, m)
		}
		positions = append(positions, pos)
	}

	pairs := make([]Pair, 0, len(moves))
	for i := 1; i < len(positions); i++ {
		pairs = append(pairs, Pair{Before: positions[i-1], After: positions[i]})
	}
	return pairs, nil
}
