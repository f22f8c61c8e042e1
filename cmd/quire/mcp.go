package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the questionnaire builder as MCP tools, so agents can create
sessions, add sections and questions, connect branches and save.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		app, _, logger, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Studio, quire.Version, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Stdout carries JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("Starting Quire MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting Quire MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
