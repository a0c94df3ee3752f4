package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "fl",
		Short:         "feedlink (fl): feed and chat client for a multi-endpoint backend",
		Long:          "fl resolves a reachable backend endpoint from the configured catalog, then reads the timeline, toggles tweet state, looks up users and exchanges direct messages through it, re-resolving when calls fail.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.wire(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.finish(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log resolution and retry decisions to stderr")
	flags.BoolVar(&a.opts.asJSON, "json", false, "Render JSON output")
	flags.BoolVar(&a.opts.metrics, "metrics", false, "Print Prometheus counters to stderr on exit")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSessionCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newFeedCmd(a),
		newTweetCmd(a),
		newUserCmd(a),
		newMessageCmd(a),
	)

	return rootCmd
}
