package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/roamchat/roam/internal/bridge"
	"github.com/roamchat/roam/internal/config"
	"github.com/roamchat/roam/internal/nav"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the map tools over stdio for external MCP clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// runMCP serves the same tool bridge the chat UI uses in process, but over
// stdio. There is no map panel here, so accepted updates are logged instead.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server, err := bridge.NewServer(bridge.ServerConfig{
		Name:    "roam",
		Version: AppVersion,
		Sink:    loggingSink(logger),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating tool server: %w", err)
	}

	logger.Info("tool server ready", "transport", "stdio", "version", AppVersion)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tool server error: %w", err)
	}

	logger.Info("tool server shut down")
	return nil
}

func loggingSink(logger *slog.Logger) nav.Sink {
	return func(update nav.MapUpdate) {
		switch update.Kind {
		case nav.KindLocation:
			logger.Info("map update accepted", "kind", "location", "query", update.Location.Query)
		case nav.KindRoute:
			logger.Info("map update accepted", "kind", "route",
				"origin", update.Route.Origin, "destination", update.Route.Destination)
		}
	}
}
