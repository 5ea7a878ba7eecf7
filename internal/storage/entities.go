package storage

import "time"

type Reminder struct {
	ID        string
	Text      string
	DueAt     time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

type ReminderListFilter struct {
	Status string
	Limit  int
	Offset int
}
