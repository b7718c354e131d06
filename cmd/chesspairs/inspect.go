package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chesspairs"
	"github.com/chesspairs/game"
)

// headerTags are the PGN tags inspect prints above the positions, in PGN order.
var headerTags = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

func Inspect() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect pgn-file",
		Short: "Print the placement and encoding of every position of one game",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("game")
			if n < 1 {
				return errors.Errorf("game must be at least 1, got %d", n)
			}

			src, err := game.OpenPGN(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			var g game.Game
			for i := 0; i < n; i++ {
				g, err = src.Next(cmd.Context())
				if err == game.ErrSourceExhausted {
					return errors.Errorf("%s has only %d games", args[0], i)
				}
				var decErr *game.DecodeError
				if errors.As(err, &decErr) && i < n-1 {
					continue
				}
				if err != nil {
					return err
				}
			}

			pairs, err := chesspairs.Accumulate(g.Board(), g.Moves())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cg, ok := g.(*game.ChessGame); ok {
				for _, key := range headerTags {
					if v := cg.Tag(key); v != "" {
						fmt.Fprintf(out, "[%s %q]\n", key, v)
					}
				}
				fmt.Fprintln(out)
			}

			initial, err := game.Encode(g.Board().Placement())
			if err != nil {
				return errors.WithMessage(err, "initial position")
			}
			fmt.Fprintln(out, initial)
			fmt.Fprintln(out, initial.Ints())
			for _, p := range pairs {
				fmt.Fprintln(out, p.After)
				fmt.Fprintln(out, p.After.Ints())
			}
			fmt.Fprintf(out, "\n%d pairs\n", len(pairs))
			return nil
		},
	}
	cmd.Flags().IntP("game", "g", 1, "1-based index of the game to inspect")
	return cmd
}
