package main

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sandeepkv93/medremind/internal/mcpserver"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve reminder tools over MCP (stdio)",
	Long: `Start an MCP server on stdin/stdout exposing the tools add_reminder,
list_reminders, delete_reminder and permission_status.

The server never prompts: grant the permission first with
"medremind permission grant".

Example MCP client configuration:
  {
    "mcpServers": {
      "medremind": {"command": "/path/to/medremind", "args": ["mcp"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(appOptions{logToFile: true})
	if err != nil {
		return err
	}
	defer a.Close()

	a.center.Start()
	if err := a.trackDeliveries(ctx); err != nil {
		return err
	}
	if _, err := a.controller.Restore(ctx); err != nil {
		if !errors.Is(err, reminder.ErrPermissionDenied) {
			return err
		}
		a.logger.Info("restore skipped", zap.Error(err))
	}

	s, err := mcpserver.NewServer(a.controller, a.gate, a.logger.Named("mcp"))
	if err != nil {
		return err
	}
	return server.ServeStdio(s.MCPServer())
}
