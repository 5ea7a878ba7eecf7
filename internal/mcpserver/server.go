// Package mcpserver exposes the reminder controller as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandeepkv93/medremind/internal/commands"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"go.uber.org/zap"
)

const (
	serverName    = "medremind"
	serverVersion = "1.0.0"
)

type Controller interface {
	Create(ctx context.Context, text string, dueAt time.Time) (model.Reminder, error)
	Delete(ctx context.Context, id string) (bool, error)
	List() []model.Reminder
}

type PermissionReporter interface {
	Status(ctx context.Context) (platform.PermissionStatus, error)
}

type Server struct {
	mcpServer   *server.MCPServer
	controller  Controller
	permissions PermissionReporter
	logger      *zap.Logger
	now         func() time.Time
}

type reminderView struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	DueAt  time.Time `json:"due_at"`
	Status string    `json:"status"`
}

func NewServer(controller Controller, permissions PermissionReporter, logger *zap.Logger) (*Server, error) {
	if controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if permissions == nil {
		return nil, fmt.Errorf("permission reporter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		controller:  controller,
		permissions: permissions,
		logger:      logger,
		now:         time.Now,
	}
	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Schedule a reminder notification"),
			mcp.WithString("text", mcp.Required(), mcp.Description("What to be reminded of")),
			mcp.WithString("due", mcp.Required(), mcp.Description("When: a duration (10m, +1h30m), a clock time (08:30) or RFC3339")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders in creation order, optionally filtered by status"),
			mcp.WithString("status", mcp.Description("Filter by status: pending, fired, or empty for all")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder and cancel its notification"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleDeleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("permission_status",
			mcp.WithDescription("Report whether reminder notifications are allowed"),
		),
		s.handlePermissionStatus,
	)
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	due := req.GetString("due", "")
	if strings.TrimSpace(due) == "" {
		return mcp.NewToolResultError("due is required"), nil
	}
	dueAt, err := commands.ParseWhen(due, s.now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid due: %v", err)), nil
	}

	r, err := s.controller.Create(ctx, text, dueAt)
	if err != nil {
		s.logger.Info("add_reminder failed", zap.Error(err))
		return mcp.NewToolResultError(describeError(err)), nil
	}

	output, _ := json.MarshalIndent(toView(r), "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleListReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := req.GetString("status", "")
	var status model.Status
	if filter != "" {
		parsed, err := model.ParseStatus(filter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status = parsed
	}

	out := make([]reminderView, 0)
	for _, r := range s.controller.List() {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, toView(r))
	}
	if len(out) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	output, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	removed, err := s.controller.Delete(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}
	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf("Reminder %s not found.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", id)), nil
}

func (s *Server) handlePermissionStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.permissions.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to query permission: %v", err)), nil
	}
	return mcp.NewToolResultText(string(status)), nil
}

func toView(r model.Reminder) reminderView {
	return reminderView{ID: r.ID, Text: r.Text, DueAt: r.DueAt, Status: string(r.Status)}
}

func describeError(err error) string {
	switch {
	case errors.Is(err, reminder.ErrPermissionDenied):
		return "notification permission is not granted; run `medremind permission grant`"
	case errors.Is(err, reminder.ErrScheduling):
		return fmt.Sprintf("could not schedule the notification, retry later: %v", err)
	default:
		return err.Error()
	}
}
