package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := newApp()
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "dchat",
		Short:         "dchat: presence-aware chat over a distributed record index",
		Long:          "dchat publishes connect, message, and leave records to a record store, reconciles who is online from the store's history, and follows new records live. The same store can be inspected with raw publish, query, and listen commands.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.wire(cmd, flags)
		},
	}

	flags.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(app),
		newWhoCmd(app),
		newSayCmd(app),
		newPublishCmd(app),
		newQueryCmd(app),
		newListenCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
