package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/roamchat/roam/internal/bridge"
	"github.com/roamchat/roam/internal/chat"
	"github.com/roamchat/roam/internal/config"
	"github.com/roamchat/roam/internal/log"
	"github.com/roamchat/roam/internal/nav"
	"github.com/roamchat/roam/internal/observability"
	"github.com/roamchat/roam/internal/stream"
	"github.com/roamchat/roam/internal/tui"
)

const shutdownTimeout = 5 * time.Second

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat UI (the default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runChat assembles the whole pipeline: config, logging, the in-process tool
// bridge (server and client over an in-memory transport), the Gemini chat
// session, the stream reducer, and finally the Bubble Tea program that drives
// them.
func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateChat(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Environment: cfg.Tracing.Environment,
			Version:     AppVersion,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer flushCancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("trace flush failed", "error", err)
			}
		}()
	}

	// Map collaborators behind the sink.
	geocoder, err := nav.NewGeocoder(cfg.NominatimURL, cfg.UserAgent, logger)
	if err != nil {
		return fmt.Errorf("creating geocoder: %w", err)
	}
	router, err := nav.NewRouter(cfg.OSRMURL, cfg.UserAgent, logger)
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}
	resolver, err := nav.NewResolver(geocoder, router)
	if err != nil {
		return fmt.Errorf("creating resolver: %w", err)
	}

	// The event funnel exists before everything that feeds it: the bridge's
	// sink, the reducer's emitter, and the TUI all share it.
	events := tui.NewEvents(ctx)

	server, err := bridge.NewServer(bridge.ServerConfig{
		Name:    "roam",
		Version: AppVersion,
		Sink:    events.MapSink(resolver, logger),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating tool server: %w", err)
	}

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Run(ctx, serverTransport) }()

	client, err := bridge.Connect(ctx, clientTransport, logger)
	if err != nil {
		return fmt.Errorf("connecting to tool server: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("bridge close failed", "error", err)
		}
	}()

	defs, err := client.Tools(ctx)
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}

	gchat, err := chat.NewGeminiChat(ctx, chat.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.ModelName,
	}, defs)
	if err != nil {
		return fmt.Errorf("creating model session: %w", err)
	}

	markdown := tui.NewMarkdown(80)
	reducer, err := stream.New(client, markdown, events, logger)
	if err != nil {
		return fmt.Errorf("creating stream reducer: %w", err)
	}

	session, err := chat.NewSession(chat.Config{
		Streamer: gchat,
		Reducer:  reducer,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating chat session: %w", err)
	}

	model, err := tui.New(ctx, tui.Config{
		Session:  session,
		Events:   events,
		Markdown: markdown,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}

	cancel()
	if err := <-serverErr; err != nil && ctx.Err() == nil {
		logger.Warn("tool server stopped", "error", err)
	}
	return nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON}), nil
}
