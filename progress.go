package chesspairs

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/inhies/go-bytesize"
)

const barLength = 20

// NopReporter shows nothing.
type NopReporter struct{}

func (NopReporter) Update(int, time.Duration) {}
func (NopReporter) Finish(int, time.Duration) {}

// BarReporter draws a percentage bar with an ETA against a known number of games.
type BarReporter struct {
	w     io.Writer
	total int
}

// NewBarReporter returns a bar for total games. With total <= 0 only the final summary
// line is written.
func NewBarReporter(w io.Writer, total int) *BarReporter {
	return &BarReporter{w: w, total: total}
}

func (r *BarReporter) Update(games int, elapsed time.Duration) {
	if r.total <= 0 || games <= 0 {
		return
	}
	percent := float64(games) / float64(r.total)
	if percent > 1 {
		percent = 1
	}

	arrowLen := int(math.Round(percent*barLength)) - 1
	if arrowLen < 0 {
		arrowLen = 0
	}
	arrow := strings.Repeat("-", arrowLen) + ">"
	spaces := strings.Repeat(" ", barLength-len(arrow))

	remaining := elapsed.Seconds()/percent - elapsed.Seconds()
	fmt.Fprintf(r.w, "\rProgress: [%s] %d%% ETA: %d minutes and %.0f seconds",
		arrow+spaces, int(math.Round(percent*100)), int(remaining/60), math.Mod(remaining, 60))
}

func (r *BarReporter) Finish(games int, elapsed time.Duration) {
	writeSummary(r.w, games, elapsed)
}

// SpinnerReporter is used when the number of games isn't known up front. It shows how
// many games and bytes of input have been processed.
type SpinnerReporter struct {
	s     *spinner.Spinner
	bytes func() int64
}

// NewSpinnerReporter starts a spinner on w. bytes may be nil.
func NewSpinnerReporter(w io.Writer, bytes func() int64) *SpinnerReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Prefix = " "
	s.Start()
	return &SpinnerReporter{s: s, bytes: bytes}
}

func (r *SpinnerReporter) Update(games int, elapsed time.Duration) {
	suffix := fmt.Sprintf(" %d games", games)
	if r.bytes != nil {
		suffix += fmt.Sprintf(", %s read", bytesize.New(float64(r.bytes())))
	}
	r.s.Lock()
	r.s.Suffix = suffix
	r.s.Unlock()
}

func (r *SpinnerReporter) Finish(games int, elapsed time.Duration) {
	r.s.Stop()
	writeSummary(r.s.Writer, games, elapsed)
}

func writeSummary(w io.Writer, games int, elapsed time.Duration) {
	fmt.Fprintf(w, "\n %d games processed in %v seconds\n", games, elapsed.Seconds())
}
