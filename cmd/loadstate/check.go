package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check URL...",
		Short: "GET every URL once and print the resulting load states as JSON",
		Long: `Runs one validated GET per URL as a batch under the "states" group,
waits for every request to settle, and prints the store snapshot.
Exits 1 when any request failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLoader(opts, cmd, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			c := newChecker(l, args)
			if _, err := c.start(ctx); err != nil {
				return err
			}
			if err := l.Runner().Wait(ctx); err != nil {
				return fmt.Errorf("interrupted before checks settled: %w", err)
			}

			out, err := json.MarshalIndent(l.Store().Snapshot(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if c.failed() {
				return errChecksFailed
			}
			return nil
		},
	}
}
