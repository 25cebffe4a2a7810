package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/factory"
	"github.com/taskdeck/taskdeck/internal/llm"
	"github.com/taskdeck/taskdeck/internal/logger"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API and chat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	log := logger.New("taskdeck")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	if cfg.AuthSecret == "" {
		log.Fatal().Msg("TASKDECK_AUTH_SECRET must be set")
	}

	ctx := context.Background()
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage unavailable")
	}

	// Without an API key the chat surface degrades to a canned reply
	// instead of refusing to start.
	var completer llm.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Warn().Msg("No completion API key configured; chat will return a static notice")
	}

	tasksSvc := service.NewTaskService(st)
	usersSvc := service.NewUserService(st)
	dispatcher := tools.NewDispatcher(tasksSvc, log)
	chatSvc := service.NewChatService(st, usersSvc, completer, dispatcher, log)

	router := api.NewRouter(api.RouterDeps{
		Store:    st,
		Tasks:    tasksSvc,
		Chat:     chatSvc,
		Verifier: auth.NewVerifier(cfg.AuthSecret),
	})

	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
	return nil
}
