package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/sandeepkv93/medremind/internal/reminder"
)

// Controller is the reminder surface the screen drives.
type Controller interface {
	Create(ctx context.Context, text string, dueAt time.Time) (model.Reminder, error)
	Delete(ctx context.Context, id string) (bool, error)
	List() []model.Reminder
	HandleDelivery(ctx context.Context, d platform.Delivery) error
	Restore(ctx context.Context) (reminder.RestoreReport, error)
}

// Listener delivers notifications while the screen is mounted.
type Listener interface {
	Start(onDelivered func(platform.Delivery)) error
	Stop()
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Up     string
	Down   string
	Delete string
	Help   string
	Quit   string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type PermissionPrompt struct {
	Active bool
	reply  chan<- bool
}

// DeleteConfirm holds a delete waiting for the user's y/n.
type DeleteConfirm struct {
	Active bool
	ID     string
	Text   string
}

type Model struct {
	Reminders   []model.Reminder
	Cursor      int
	Creating    bool
	Prompt      PermissionPrompt
	Confirm     DeleteConfirm
	Delivered   []Notification
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	controller Controller
	listener   Listener
	ctx        context.Context
	cancel     context.CancelFunc
	deliveries chan platform.Delivery
	now        func() time.Time
	restore    bool

	commandInput textinput.Model
	helpModel    help.Model
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderCreatedMsg struct {
	Reminder model.Reminder
	Err      error
}

type ReminderDeletedMsg struct {
	ID      string
	Removed bool
	Err     error
}

type DeliveryMsg struct {
	Delivery platform.Delivery
}

type DeliveryHandledMsg struct {
	Err error
}

type RestoredMsg struct {
	Report reminder.RestoreReport
	Err    error
}

// PermissionPromptMsg asks the user to allow notifications. The answer is
// sent on Reply.
type PermissionPromptMsg struct {
	Reply chan<- bool
}
