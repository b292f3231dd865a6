// Package cmd wires the roam commands: the interactive chat UI (default),
// the stdio tool server, and version.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roam",
	Short: "Roam — a conversational map assistant for the terminal",
	Long: `Roam is a terminal assistant for places and journeys. Chat with it about
where things are and how to get there; it frames locations and routes on a
map panel as you talk.

Running roam with no arguments starts the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
