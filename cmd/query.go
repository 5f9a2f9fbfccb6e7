package cmd

import (
	"fmt"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/spf13/cobra"
)

func newQueryCmd(app *app) *cobra.Command {
	var dedupe bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query KEY=REGEX...",
		Short: "Print every stored record matching all field patterns",
		Example: `  dchat query action='(?i)connect' username='.*'
  dchat query topic=weather --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := domain.ParsePattern(args)
			if err != nil {
				return err
			}

			store, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, app.logger)

			records, err := store.Query(cmd.Context(), pattern)
			if err != nil {
				return fmt.Errorf("query records: %w", err)
			}
			if dedupe {
				records = domain.Dedupe(records)
			}

			if asJSON {
				return writeRecordsJSON(cmd.OutOrStdout(), records)
			}
			for _, rec := range records {
				if err := writeRecordLine(cmd.OutOrStdout(), rec, false); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "Drop records with identical content")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
