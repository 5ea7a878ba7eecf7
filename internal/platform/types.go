// Package platform provides the in-process stand-ins for the operating
// system collaborators of the reminder engine: the notification permission
// flag and the local notification center.
package platform

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownHandle     = errors.New("platform: unknown trigger handle")
	ErrUnknownChannel    = errors.New("platform: unknown notification channel")
	ErrInvalidChannel    = errors.New("platform: invalid notification channel")
	ErrInvalidFireTime   = errors.New("platform: invalid fire time")
	ErrClosed            = errors.New("platform: notification center closed")
	ErrInvalidPermission = errors.New("platform: invalid permission status")
)

type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

func (s PermissionStatus) IsValid() bool {
	switch s {
	case PermissionGranted, PermissionDenied, PermissionUndetermined:
		return true
	default:
		return false
	}
}

func ParsePermissionStatus(raw string) (PermissionStatus, error) {
	s := PermissionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPermission, raw)
	}
	return s, nil
}

// HandleRef identifies one registered trigger.
type HandleRef string

type SubscriptionID uint64

type Importance int

const (
	ImportanceMin Importance = iota + 1
	ImportanceLow
	ImportanceDefault
	ImportanceHigh
	ImportanceMax
)

type Channel struct {
	ID               string
	Name             string
	Importance       Importance
	VibrationPattern []time.Duration
	LightColor       string
}

// DefaultChannel is the high-importance channel reminders post to.
func DefaultChannel() Channel {
	return Channel{
		ID:         "default",
		Name:       "default",
		Importance: ImportanceMax,
		VibrationPattern: []time.Duration{
			0, 250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond,
		},
		LightColor: "#FF231F7C",
	}
}

func (c Channel) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidChannel)
	}
	if c.Importance < ImportanceMin || c.Importance > ImportanceMax {
		return fmt.Errorf("%w: importance %d out of range", ErrInvalidChannel, c.Importance)
	}
	return nil
}

type Content struct {
	Title     string
	Body      string
	ChannelID string
	Data      map[string]string
}

type Delivery struct {
	Handle      HandleRef
	Content     Content
	DeliveredAt time.Time
}
