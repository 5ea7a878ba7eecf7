package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: duplicate key")
)

type Repository interface {
	CreateReminder(ctx context.Context, in Reminder) error
	GetReminder(ctx context.Context, id string) (Reminder, error)
	UpdateReminderStatus(ctx context.Context, id, status string) error
	DeleteReminder(ctx context.Context, id string) error
	ListReminders(ctx context.Context, filter ReminderListFilter) ([]Reminder, error)

	GetSetting(ctx context.Context, key string) (Setting, error)
	PutSetting(ctx context.Context, in Setting) error
	DeleteSetting(ctx context.Context, key string) error
}
