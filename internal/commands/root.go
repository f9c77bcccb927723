package commands

import "github.com/spf13/cobra"

// NewRootCommand assembles the chatwire command tree
func NewRootCommand(version string) *cobra.Command {
	global := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "chatwire",
		Short: "Terminal client and reference backend for the chat widget",
		Long: `chatwire talks to a chat backend over HTTP with bounded retries.

Each message is attempted a fixed number of times with a deadline per attempt.
When every attempt fails the last error is turned into a message for the user.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	global.bind(rootCmd)

	rootCmd.AddCommand(
		NewSendCommand(global),
		NewChatCommand(global),
		NewServeCommand(global),
		NewVersionCommand(version),
	)

	return rootCmd
}
