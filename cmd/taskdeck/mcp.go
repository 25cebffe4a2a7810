package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/factory"
	"github.com/taskdeck/taskdeck/internal/mcpserver"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP stdio server for agent-mode task management",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func runMCP() error {
	// stdout carries the MCP protocol; all logging goes to stderr.
	log := zerolog.New(os.Stderr).With().
		Str("service", "taskdeck-mcp").
		Timestamp().
		Logger()

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	st, err := factory.NewStore(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage unavailable")
	}

	dispatcher := tools.NewDispatcher(service.NewTaskService(st), log)
	return mcpserver.New(dispatcher, log).ServeStdio()
}
