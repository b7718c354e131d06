package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chesspairs"
	"github.com/chesspairs/game"
)

func Convert() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert pgn-file",
		Short: "Convert a PGN file into a pair dataset",
		Long: heredoc.Doc(`
			convert reads every game of the PGN file, encodes each position as 64
			piece codes and pairs every position with the one after it.

			The input may be compressed with bzip2 (.bz2), zstd (.zst) or gzip (.gz).
			With --output the dataset is written as gob, or as nested JSON arrays when the
			name ends in .json. Append .zst to compress it.

			Interrupting the run stops it after the current game.
		`),
		Example: heredoc.Doc(`
			$ chesspairs convert games.pgn.bz2 --output pairs.json.zst
			$ chesspairs convert 2017games_rating2600.pgn --total-games 5000
		`),
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			conf, err := chesspairs.LoadConfig(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			conf.Input = args[0]
			if !conf.IsValid() {
				return errors.Errorf("invalid configuration %+v", conf)
			}
			if !cmd.Flag("trace").Changed {
				level, _ := logrus.ParseLevel(conf.LogLevel)
				logrus.SetLevel(level)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return convert(ctx, conf)
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Write the dataset to this file")
	flags.Int("total-games", 0, "Expected number of games, enables the percentage bar")
	flags.Int("max-games", 0, "Stop after this many games (0 for all)")
	flags.Bool("skip-invalid", false, "Skip games that can't be replayed instead of aborting")
	flags.BoolP("quiet", "q", false, "Don't show progress")
	flags.String("log-level", "info", "Log level")
	return cmd
}

func convert(ctx context.Context, conf chesspairs.Config) (err error) {
	src, err := game.OpenPGN(conf.Input)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var reporter chesspairs.Reporter
	switch {
	case conf.Quiet:
		reporter = chesspairs.NopReporter{}
	case conf.TotalGames > 0:
		reporter = chesspairs.NewBarReporter(os.Stdout, conf.TotalGames)
	default:
		reporter = chesspairs.NewSpinnerReporter(os.Stdout, src.BytesRead)
	}

	logrus.WithFields(logrus.Fields{
		"input": conf.Input,
		"size":  src.Size(),
	}).Debug("converting")

	ds, err := chesspairs.New(src, conf, chesspairs.WithReporter(reporter)).Build(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logrus.Info(chesspairs.Summarize(ds))

	if conf.Output != "" {
		if serr := chesspairs.Save(ds, conf.Output); serr != nil {
			return serr
		}
		logrus.WithField("output", conf.Output).Info("dataset written")
	}
	return err
}
