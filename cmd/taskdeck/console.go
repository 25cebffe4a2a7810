package main

import (
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the local single-user terminal UI (no server, no persistence)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return console.Run()
	},
}
