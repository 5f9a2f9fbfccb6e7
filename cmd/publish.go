package cmd

import (
	"fmt"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/spf13/cobra"
)

func newPublishCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish KEY=VALUE...",
		Short: "Publish a raw record",
		Example: `  dchat publish topic=weather city=Lyon forecast=rain
  dchat publish action=connect username=alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := domain.ParseRecord(args)
			if err != nil {
				return err
			}

			store, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, app.logger)

			if err := store.Publish(cmd.Context(), rec); err != nil {
				return fmt.Errorf("publish record: %w", err)
			}

			app.logger.Info("record published", "record", rec.String())
			return nil
		},
	}
}
