// Package notify binds reminders to platform notification triggers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/medremind/internal/metrics"
	"github.com/sandeepkv93/medremind/internal/platform"
	"go.uber.org/zap"
)

// DataKeyReminderID is the notification payload key carrying the reminder id.
const DataKeyReminderID = "reminder_id"

var (
	ErrPastTrigger = errors.New("notify: trigger time is not in the future")
	ErrMissingID   = errors.New("notify: reminder id is required")
)

type Platform interface {
	RegisterTrigger(ctx context.Context, content platform.Content, fireAt time.Time) (platform.HandleRef, error)
	CancelTrigger(ctx context.Context, handle platform.HandleRef) error
}

// Scheduler owns the reminder id -> trigger handle mapping and keeps at most
// one live handle per reminder id.
type Scheduler struct {
	platform  Platform
	channelID string
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu      sync.Mutex
	handles map[string]platform.HandleRef
	owners  map[platform.HandleRef]string
}

type Option func(*Scheduler)

func WithChannel(id string) Option {
	return func(s *Scheduler) { s.channelID = id }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func NewScheduler(p Platform, opts ...Option) (*Scheduler, error) {
	if p == nil {
		return nil, fmt.Errorf("platform cannot be nil")
	}
	s := &Scheduler{
		platform:  p,
		channelID: platform.DefaultChannel().ID,
		logger:    zap.NewNop(),
		now:       time.Now,
		handles:   make(map[string]platform.HandleRef),
		owners:    make(map[platform.HandleRef]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Schedule registers a trigger firing at dueAt for reminder id. An existing
// handle for id is cancelled first. It returns once the platform has
// acknowledged the registration.
func (s *Scheduler) Schedule(ctx context.Context, id, title, body string, dueAt time.Time) (platform.HandleRef, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrMissingID
	}
	if !dueAt.After(s.now()) {
		return "", fmt.Errorf("%w: %s", ErrPastTrigger, dueAt.Format(time.RFC3339))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.handles[id]; ok {
		if err := s.platform.CancelTrigger(ctx, old); err != nil && !errors.Is(err, platform.ErrUnknownHandle) {
			return "", fmt.Errorf("replace trigger for %s: %w", id, err)
		}
		s.dropLocked(id, old)
		s.logger.Debug("replaced existing trigger", zap.String("reminder_id", id), zap.String("handle", string(old)))
	}

	handle, err := s.platform.RegisterTrigger(ctx, platform.Content{
		Title:     title,
		Body:      body,
		ChannelID: s.channelID,
		Data:      map[string]string{DataKeyReminderID: id},
	}, dueAt)
	if err != nil {
		return "", err
	}
	s.handles[id] = handle
	s.owners[handle] = id
	s.observeLocked()
	s.logger.Debug("trigger scheduled",
		zap.String("reminder_id", id),
		zap.String("handle", string(handle)),
		zap.Time("due_at", dueAt),
	)
	return handle, nil
}

// Cancel voids the trigger of reminder id. It reports whether a live handle
// existed; an unknown id or an already fired trigger is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.handles[id]
	if !ok {
		return false, nil
	}
	err := s.platform.CancelTrigger(ctx, handle)
	if err != nil && !errors.Is(err, platform.ErrUnknownHandle) {
		return false, fmt.Errorf("cancel trigger for %s: %w", id, err)
	}
	s.dropLocked(id, handle)
	s.observeLocked()
	return err == nil, nil
}

// ForgetHandle drops the mapping of a trigger the platform already consumed.
// It reports the owning reminder id, or false when handle is no longer the
// live handle of any reminder, e.g. after the reminder was re-armed.
func (s *Scheduler) ForgetHandle(handle platform.HandleRef) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.owners[handle]
	if !ok {
		return "", false
	}
	s.dropLocked(id, handle)
	s.observeLocked()
	return id, true
}

func (s *Scheduler) Handle(id string) (platform.HandleRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[id]
	return h, ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *Scheduler) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.handles))
	for id := range s.handles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Scheduler) dropLocked(id string, handle platform.HandleRef) {
	delete(s.handles, id)
	delete(s.owners, handle)
}

func (s *Scheduler) observeLocked() {
	if s.metrics != nil {
		s.metrics.NotificationHandles.Set(float64(len(s.handles)))
	}
}
