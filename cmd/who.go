package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/dindex-chat/internal/application"
	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/spf13/cobra"
)

type activeUserJSON struct {
	Username string        `json:"username"`
	Record   domain.Record `json:"record"`
}

func newWhoCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "who",
		Short: "List users who are connected and have not left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWho(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runWho(cmd *cobra.Command, app *app, asJSON bool) error {
	store, err := app.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store, app.logger)

	presence := application.NewPresence(app.clock)
	if asJSON {
		_, err = presence.Reconcile(cmd.Context(), store)
	} else {
		var connects, leaves []domain.Record
		connects, leaves, err = runReconcileSpinner(cmd.Context(), cmd.ErrOrStderr(), app.settings.Drivers, store.Query)
		if err == nil {
			presence.Initialize(connects, leaves)
		}
	}
	if err != nil {
		return err
	}

	users := presence.Snapshot()
	if asJSON {
		out := make([]activeUserJSON, 0, len(users))
		for _, user := range users {
			out = append(out, activeUserJSON{Username: user.Username, Record: user.Record})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	rendered, err := app.userRenderer(users, presenceRenderOptions(app))
	if err != nil {
		return fmt.Errorf("render active users: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
