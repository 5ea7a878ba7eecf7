package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation        = errors.New("model: invalid reminder")
	ErrInvalidStatus     = errors.New("model: invalid reminder status")
	ErrIllegalTransition = errors.New("model: illegal status transition")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFired     Status = "fired"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusFired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no notification handle may exist for s.
func (s Status) IsTerminal() bool {
	return s == StatusFired || s == StatusCancelled
}

func (s Status) CanTransition(to Status) bool {
	return s == StatusPending && to.IsTerminal()
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

type Reminder struct {
	ID        string
	Text      string
	DueAt     time.Time
	Status    Status
	CreatedAt time.Time
}

// ValidateInput checks user-supplied fields before any id is assigned.
func ValidateInput(text string, dueAt, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	if dueAt.IsZero() {
		return fmt.Errorf("%w: due time is required", ErrValidation)
	}
	if dueAt.Before(now) {
		return fmt.Errorf("%w: due time %s is in the past", ErrValidation, dueAt.Format(time.RFC3339))
	}
	return nil
}

func (r Reminder) Validate(now time.Time) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	return ValidateInput(r.Text, r.DueAt, now)
}

// Transition returns a copy of r moved to the given status.
func (r Reminder) Transition(to Status) (Reminder, error) {
	if !r.Status.CanTransition(to) {
		return r, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.Status, to)
	}
	r.Status = to
	return r, nil
}
