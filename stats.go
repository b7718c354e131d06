package chesspairs

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a dataset.
type Summary struct {
	Games      int
	Pairs      int
	Skipped    int
	MeanPly    float64 // mean moves per contributing game
	StdPly     float64
	LongestPly int
}

// Summarize computes a Summary. Plies statistics are zero for datasets without them,
// such as ones loaded from JSON.
func Summarize(ds *Dataset) Summary {
	s := Summary{
		Games:   ds.Games,
		Pairs:   len(ds.Pairs),
		Skipped: ds.SkippedCount(),
	}
	if len(ds.Plies) == 0 {
		return s
	}

	plies := make([]float64, len(ds.Plies))
	for i, p := range ds.Plies {
		plies[i] = float64(p)
		if p > s.LongestPly {
			s.LongestPly = p
		}
	}
	s.MeanPly = stat.Mean(plies, nil)
	if len(plies) > 1 {
		s.StdPly = stat.StdDev(plies, nil)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d games (%d skipped), %d pairs, %.1f±%.1f plies per game, longest %d",
		s.Games, s.Skipped, s.Pairs, s.MeanPly, s.StdPly, s.LongestPly)
}
