// Package servecmder provides the serve command, which runs the read-only
// inspection API and its MCP endpoint.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/api"
	"github.com/papercomputeco/arbor/api/mcp"
	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/config"
	"github.com/papercomputeco/arbor/pkg/logger"
)

const serveLongDesc string = `Run the arbor inspection API.

The server reads projects from the configured storage driver and never
writes to them. It serves:
  GET /projects                        List projects
  GET /projects/:project/nodes         List nodes with depth and memory policy
  GET /projects/:project/context/:id   Compiled context (?prompt=...)
  GET /projects/:project/summary/:id   Context summary
  GET /projects/:project/integrity     Structural check
  GET /projects/:project/export        Export document
  /mcp                                 MCP tools context_compile, context_summary

Examples:
  arbor serve
  arbor serve --listen :9000 --storage postgres --postgres "postgres://..."`

const serveShortDesc string = "Run the inspection API"

type serveCommander struct {
	listen      string
	tokenBudget uint

	logger *slog.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddUintFlag(cmd, config.Flags, config.FlagTokenBudget, &cmder.tokenBudget)
	workspace.AddStorageFlags(cmd)

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	flags := workspace.FlagsFrom(cmd)
	c.logger = logger.New(
		logger.WithDebug(flags.Debug),
		logger.WithJSON(!logger.IsTerminal(os.Stdout)),
		logger.WithPretty(logger.IsTerminal(os.Stdout)),
	)

	keys := append([]string{config.FlagAPIListen, config.FlagTokenBudget}, workspace.StorageFlagKeys...)
	cfg, cfger, err := workspace.LoadConfig(cmd, flags, keys...)
	if err != nil {
		return err
	}

	driver, err := workspace.OpenDriver(cmd.Context(), cfg, cfger)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer driver.Close()

	c.logger.Info("using storage", "driver", cfg.Storage.Driver)

	budget := int(cfg.Context.TokenBudget) //nolint:gosec // budget is small

	mcpServer, err := mcp.NewServer(mcp.Config{
		Driver:      driver,
		TokenBudget: budget,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:  cfg.API.Listen,
		TokenBudget: budget,
	}, driver, mcpServer.Handler(), c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	case <-cmd.Context().Done():
		return server.Shutdown()
	}
}
