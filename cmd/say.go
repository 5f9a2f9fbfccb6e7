package cmd

import (
	"strings"

	"github.com/bnema/dindex-chat/internal/application"
	"github.com/spf13/cobra"
)

func newSayCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "say MESSAGE...",
		Short: "Publish one chat message as the local user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, app.logger)

			session := application.NewSession(store, app.sessionConfig(0), nil, app.clock, app.logger)
			return session.Say(cmd.Context(), strings.Join(args, " "))
		},
	}
}
