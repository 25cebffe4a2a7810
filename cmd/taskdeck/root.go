package main

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "taskdeck",
	Short:        "Task tracking with a REST API, an LLM chat assistant, and a terminal UI",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd, consoleCmd)
}

func parseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
