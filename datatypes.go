package chesspairs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chesspairs/game"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Pair is a training example: the position before a move and the position after it.
// It marshals to JSON as [[before...],[after...]].
type Pair struct {
	Before game.Position
	After  game.Position
}

func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][]int{p.Before.Ints(), p.After.Ints()})
}

func (p *Pair) UnmarshalJSON(b []byte) error {
	var raw [][]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return errors.Errorf("pair has %d positions, want 2", len(raw))
	}
	for i, dst := range []*game.Position{&p.Before, &p.After} {
		if len(raw[i]) != game.Squares {
			return errors.Errorf("position %d has %d squares, want %d", i, len(raw[i]), game.Squares)
		}
		for sq, c := range raw[i] {
			if c < int(game.Empty) || c > int(game.MaxCode) {
				return errors.Errorf("position %d square %d: code %d out of range", i, sq, c)
			}
			dst[sq] = int8(c)
		}
	}
	return nil
}

// Dataset is every pair produced from a source, in the order the games and moves came.
type Dataset struct {
	Pairs   []Pair
	Games   int           // games consumed, including skipped ones
	Plies   []int         // move count of every game that contributed pairs
	Elapsed time.Duration // time spent building

	// Skipped holds one error per game dropped under Config.SkipInvalid.
	Skipped *multierror.Error `json:"-"`
}

// SkippedCount returns the number of dropped games.
func (ds *Dataset) SkippedCount() int {
	if ds.Skipped == nil {
		return 0
	}
	return len(ds.Skipped.Errors)
}

// MoveApplicationError reports a move of a game that couldn't be played on its board.
type MoveApplicationError struct {
	Game  int // 1-based position of the game in its source
	Index int // 0-based index of the move
	Move  string
	Err   error
}

func (e *MoveApplicationError) Error() string {
	return fmt.Sprintf("game %d: move %d (%s): %v", e.Game, e.Index, e.Move, e.Err)
}

func (e *MoveApplicationError) Unwrap() error { return e.Err }

// Reporter displays progress. It is cosmetic and has no effect on the dataset.
type Reporter interface {
	Update(games int, elapsed time.Duration)
	Finish(games int, elapsed time.Duration)
}
