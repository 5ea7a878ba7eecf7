package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/commands"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"github.com/sandeepkv93/medremind/internal/views"
)

const maxDelivered = 20

type Options struct {
	Now func() time.Time
	// Restore loads persisted reminders when the screen mounts.
	Restore bool
}

func NewModel(controller Controller, listener Listener) Model {
	return NewModelWithOptions(controller, listener, Options{Restore: true})
}

func NewModelWithOptions(controller Controller, listener Listener, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		controller: controller,
		listener:   listener,
		ctx:        ctx,
		cancel:     cancel,
		deliveries: make(chan platform.Delivery, 32),
		now:        time.Now,
		restore:    opts.Restore,
		Keys: GlobalKeyMap{
			Up:     "up",
			Down:   "down",
			Delete: "ctrl+d",
			Help:   "?",
			Quit:   "q",
		},
	}
	if opts.Now != nil {
		m.now = opts.Now
	}
	m.initBubbleComponents()
	m.refresh()
	return m
}

// Init mounts the screen: the delivery listener starts here and stops on quit.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.listener != nil {
		ctx, ch := m.ctx, m.deliveries
		err := m.listener.Start(func(d platform.Delivery) {
			select {
			case ch <- d:
			case <-ctx.Done():
			}
		})
		if err != nil {
			cmds = append(cmds, func() tea.Msg { return AppErrorMsg{Err: err} })
		} else {
			cmds = append(cmds, waitForDeliveryCmd(ctx, ch))
		}
	}
	if m.restore && m.controller != nil {
		cmds = append(cmds, restoreCmd(m.ctx, m.controller))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch {
		case m.Prompt.Active:
			return m.handlePromptKey(typed)
		case m.Confirm.Active:
			return m.handleConfirmKey(typed)
		}
		return m.handleKey(typed)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: describeError(typed.Err), IsError: true}
		}
		return m, nil
	case PermissionPromptMsg:
		m.Prompt = PermissionPrompt{Active: true, reply: typed.Reply}
		m.Status = StatusBar{Text: "waiting for notification permission"}
		return m, nil
	case ReminderCreatedMsg:
		m.Creating = false
		m.Prompt = PermissionPrompt{}
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: describeError(typed.Err), IsError: true}
			return m, nil
		}
		m.refresh()
		m.selectID(typed.Reminder.ID)
		m.Status = StatusBar{Text: fmt.Sprintf("reminder set for %s: %s", formatDue(typed.Reminder.DueAt, m.now()), typed.Reminder.Text)}
		return m, nil
	case ReminderDeletedMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: describeError(typed.Err), IsError: true}
			return m, nil
		}
		m.refresh()
		if typed.Removed {
			m.Status = StatusBar{Text: "reminder deleted"}
		} else {
			m.Status = StatusBar{Text: "reminder already gone"}
		}
		return m, nil
	case DeliveryMsg:
		m.pushDelivered(typed.Delivery)
		return m, tea.Batch(
			handleDeliveryCmd(m.ctx, m.controller, typed.Delivery),
			waitForDeliveryCmd(m.ctx, m.deliveries),
		)
	case DeliveryHandledMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: describeError(typed.Err), IsError: true}
		}
		m.refresh()
		return m, nil
	case RestoredMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: "stored reminders not restored: " + describeError(typed.Err), IsError: true}
			return m, nil
		}
		m.refresh()
		if n := typed.Report.Restored + typed.Report.Fired; n > 0 || typed.Report.Expired > 0 {
			m.Status = StatusBar{Text: fmt.Sprintf("restored %d reminder(s), %d expired", n, typed.Report.Expired)}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	now := m.now()
	rows := make([]views.ReminderRowData, 0, len(m.Reminders))
	pending := 0
	for i, r := range m.Reminders {
		if r.Status == model.StatusPending {
			pending++
		}
		rows = append(rows, views.ReminderRowData{
			Row:    i + 1,
			ID:     r.ID,
			Text:   r.Text,
			DueAt:  formatDue(r.DueAt, now),
			Status: string(r.Status),
		})
	}
	right := strings.TrimSpace(strings.Join([]string{
		m.renderDeliveredView(),
		m.renderHelpIfVisible(),
	}, "\n\n"))

	return views.RenderScreen(views.Screen{
		Title:         fmt.Sprintf("medremind | reminders: %d | pending: %d", len(m.Reminders), pending),
		List:          views.RenderReminderList(views.ReminderListData{Rows: rows, Cursor: m.Cursor, Creating: m.Creating}),
		Side:          right,
		Prompt:        m.renderPrompt(),
		Input:         m.commandInput.View(),
		Status:        status,
		StatusIsError: m.Status.IsError,
		Keys: fmt.Sprintf("keys: %s/%s move | %s delete | %s help | %s quit",
			m.Keys.Up, m.Keys.Down, m.Keys.Delete, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderPrompt() string {
	if m.Prompt.Active {
		return views.RenderPermissionPrompt(true)
	}
	return views.RenderDeleteConfirm(m.Confirm.Active, m.Confirm.Text)
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "> "
	m.commandInput.Placeholder = "add 10m Take medicine"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 56
	m.commandInput.Focus()

	m.helpModel = help.New()
	m.helpModel.ShowAll = true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "enter":
		return m.executeCommandLine()
	case "esc":
		m.commandInput.SetValue("")
		m.HelpVisible = false
		return m, nil
	case m.Keys.Up:
		m.moveCursor(-1)
		return m, nil
	case m.Keys.Down:
		m.moveCursor(1)
		return m, nil
	case m.Keys.Delete:
		if m.Cursor < 0 || m.Cursor >= len(m.Reminders) {
			m.Status = StatusBar{Text: "no reminder selected", IsError: true}
			return m, nil
		}
		r := m.Reminders[m.Cursor]
		m.Confirm = DeleteConfirm{Active: true, ID: r.ID, Text: r.Text}
		m.Status = StatusBar{Text: "confirm delete"}
		return m, nil
	}
	if m.commandInput.Value() == "" {
		switch msg.String() {
		case m.Keys.Quit:
			return m.quit()
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		// Quitting is not an answer: the pending request ends with the
		// screen context and nothing is stored.
		m.Prompt = PermissionPrompt{}
		return m.quit()
	case "y", "Y", "enter":
		m.answerPrompt(true)
		m.Status = StatusBar{Text: "notifications allowed"}
	case "n", "N", "esc":
		m.answerPrompt(false)
		m.Status = StatusBar{Text: "notifications not allowed"}
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Confirm = DeleteConfirm{}
		return m.quit()
	case "y", "Y", "enter":
		id := m.Confirm.ID
		m.Confirm = DeleteConfirm{}
		m.Status = StatusBar{Text: "deleting reminder"}
		return m, deleteReminderCmd(m.ctx, m.controller, id)
	case "n", "N", "esc":
		m.Confirm = DeleteConfirm{}
		m.Status = StatusBar{Text: "delete cancelled"}
	}
	return m, nil
}

// confirmDelete asks before deleting a listed reminder. Ids not on screen
// go straight to the controller, which treats them as already gone.
func (m *Model) confirmDelete(id string) tea.Cmd {
	for _, r := range m.Reminders {
		if r.ID == id {
			m.Confirm = DeleteConfirm{Active: true, ID: r.ID, Text: r.Text}
			return nil
		}
	}
	return deleteReminderCmd(m.ctx, m.controller, id)
}

func (m *Model) answerPrompt(allowed bool) {
	if m.Prompt.reply != nil {
		select {
		case m.Prompt.reply <- allowed:
		default:
		}
	}
	m.Prompt = PermissionPrompt{}
}

func (m Model) executeCommandLine() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.commandInput.Value())
	m.commandInput.SetValue("")
	if raw == "" {
		return m, nil
	}
	now := m.now()
	cmd, err := commands.Parse(raw, now)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var next tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if m.Creating {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "a reminder is already being scheduled"}
			}
			m.Creating = true
			next = createReminderCmd(m.ctx, m.controller, a.Text, a.DueAt)
			return commands.Result{Message: fmt.Sprintf("scheduling reminder for %s", formatDue(a.DueAt, now))}, nil
		},
		Delete: func(d commands.DeleteArgs) (commands.Result, error) {
			id := d.ID
			if d.Row > 0 {
				if d.Row > len(m.Reminders) {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no reminder in row %d", d.Row)}
				}
				id = m.Reminders[d.Row-1].ID
			}
			next = m.confirmDelete(id)
			if m.Confirm.Active {
				return commands.Result{Message: "confirm delete"}, nil
			}
			return commands.Result{Message: "deleting reminder"}, nil
		},
		Help: func() (commands.Result, error) {
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				return commands.Result{Message: "help shown"}, nil
			}
			return commands.Result{Message: "help hidden"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, next
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Quitting = true
	if m.listener != nil {
		m.listener.Stop()
	}
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

func (m *Model) refresh() {
	if m.controller == nil {
		return
	}
	m.Reminders = m.controller.List()
	if m.Cursor >= len(m.Reminders) {
		m.Cursor = len(m.Reminders) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) selectID(id string) {
	for i, r := range m.Reminders {
		if r.ID == id {
			m.Cursor = i
			return
		}
	}
}

func (m *Model) moveCursor(delta int) {
	if len(m.Reminders) == 0 {
		m.Cursor = 0
		return
	}
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(m.Reminders) {
		m.Cursor = len(m.Reminders) - 1
	}
}

func (m *Model) pushDelivered(d platform.Delivery) {
	m.Delivered = append(m.Delivered, Notification{
		Title: d.Content.Title,
		Body:  d.Content.Body,
		Level: "info",
		At:    d.DeliveredAt,
	})
	if len(m.Delivered) > maxDelivered {
		m.Delivered = m.Delivered[len(m.Delivered)-maxDelivered:]
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", d.Content.Title, d.Content.Body)}
}

func (m Model) renderDeliveredView() string {
	items := make([]views.DeliveryData, 0, len(m.Delivered))
	for i := len(m.Delivered) - 1; i >= 0 && len(items) < 5; i-- {
		n := m.Delivered[i]
		items = append(items, views.DeliveryData{At: n.At.Format("15:04:05"), Title: n.Title, Body: n.Body})
	}
	return views.RenderDeliveries(items)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return err.Error()
	case errors.Is(err, reminder.ErrPermissionDenied):
		return "notifications are not allowed; run `medremind permission grant` and try again"
	case errors.Is(err, reminder.ErrScheduling):
		return "could not schedule the notification, please try again"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}

func formatDue(t, now time.Time) string {
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	return t.Format("Jan 02 15:04")
}
