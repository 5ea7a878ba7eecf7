package views

import (
	"fmt"
	"strings"
)

type ReminderRowData struct {
	Row    int
	ID     string
	Text   string
	DueAt  string
	Status string
}

type ReminderListData struct {
	Rows     []ReminderRowData
	Cursor   int
	Creating bool
}

type DeliveryData struct {
	At    string
	Title string
	Body  string
}

type HelpPanelData struct {
	Markdown string
	HelpView string
}

func RenderReminderList(data ReminderListData) string {
	var b strings.Builder
	b.WriteString("reminders:\n")
	if len(data.Rows) == 0 {
		b.WriteString("  (none yet, try: add 10m Take medicine)\n")
	}
	for i, row := range data.Rows {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %2d. %s %s %s\n", cursor, row.Row, statusBadge(row.Status), row.DueAt, row.Text))
	}
	if data.Creating {
		b.WriteString("\nscheduling reminder...")
	}
	return strings.TrimSpace(b.String())
}

func RenderDeliveries(items []DeliveryData) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("delivered:\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s %s: %s\n", item.At, item.Title, item.Body))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderPermissionPrompt(active bool) string {
	if !active {
		return ""
	}
	return "Allow medremind to send reminder notifications?\n[y] allow   [n] don't allow"
}

func RenderDeleteConfirm(active bool, text string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("Delete reminder %q?\n[y] delete   [n] keep", text)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return strings.TrimSpace(fmt.Sprintf("help:\n%s\n%s", RenderMarkdown(data.Markdown), data.HelpView))
}

func statusBadge(status string) string {
	switch status {
	case "fired":
		return "[FIRED]"
	case "cancelled":
		return "[CANCELLED]"
	default:
		return "[PENDING]"
	}
}
