package update

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/platform"
)

func createReminderCmd(ctx context.Context, c Controller, text string, dueAt time.Time) tea.Cmd {
	return func() tea.Msg {
		r, err := c.Create(ctx, text, dueAt)
		return ReminderCreatedMsg{Reminder: r, Err: err}
	}
}

func deleteReminderCmd(ctx context.Context, c Controller, id string) tea.Cmd {
	return func() tea.Msg {
		removed, err := c.Delete(ctx, id)
		return ReminderDeletedMsg{ID: id, Removed: removed, Err: err}
	}
}

func handleDeliveryCmd(ctx context.Context, c Controller, d platform.Delivery) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		return DeliveryHandledMsg{Err: c.HandleDelivery(ctx, d)}
	}
}

func restoreCmd(ctx context.Context, c Controller) tea.Cmd {
	return func() tea.Msg {
		report, err := c.Restore(ctx)
		return RestoredMsg{Report: report, Err: err}
	}
}

func waitForDeliveryCmd(ctx context.Context, ch <-chan platform.Delivery) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case d := <-ch:
			return DeliveryMsg{Delivery: d}
		case <-ctx.Done():
			return nil
		}
	}
}
