package chesspairs

import (
	"github.com/chesspairs/game"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Tensors lays the dataset out as two (N, 8, 8) float32 tensors, one holding the
// positions before each move and one the positions after.
func (ds *Dataset) Tensors() (before, after *tensor.Dense, err error) {
	n := len(ds.Pairs)
	if n == 0 {
		return nil, nil, errors.New("dataset has no pairs")
	}

	beforeBacking := make([]float32, 0, n*game.Squares)
	afterBacking := make([]float32, 0, n*game.Squares)
	for _, p := range ds.Pairs {
		beforeBacking = append(beforeBacking, p.Before.Float32s()...)
		afterBacking = append(afterBacking, p.After.Float32s()...)
	}

	before = tensor.New(tensor.WithBacking(beforeBacking), tensor.WithShape(n, game.RowNum, game.ColNum))
	after = tensor.New(tensor.WithBacking(afterBacking), tensor.WithShape(n, game.RowNum, game.ColNum))
	return before, after, nil
}
