package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/spf13/cobra"
)

func newListenCmd(app *app) *cobra.Command {
	var count int
	var pollInterval time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "listen KEY=REGEX...",
		Short: "Print newly published records matching all field patterns",
		Example: `  dchat listen topic=weather --count 3
  dchat listen action=msg --poll 250ms --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return errors.New("--count must not be negative")
			}

			pattern, err := domain.ParsePattern(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store, app.logger)

			var writeErr error
			seen := 0
			handler := func(rec domain.Record) domain.Directive {
				if rec.IsEmpty() {
					return domain.DirectiveContinue
				}
				if writeErr = writeRecordLine(cmd.OutOrStdout(), rec, asJSON); writeErr != nil {
					return domain.DirectiveEndListen
				}
				seen++
				if count > 0 && seen >= count {
					return domain.DirectiveEndListen
				}
				return domain.DirectiveContinue
			}

			err = store.Listen(ctx, pattern, ports.ListenOptions{PollInterval: pollInterval}, handler)
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				err = nil
			}

			return errors.Join(err, writeErr)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Stop after N records (0 listens until interrupted)")
	cmd.Flags().DurationVar(&pollInterval, "poll", 0, "Use the timed listen variant with this poll interval")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render one JSON object per record")

	return cmd
}
