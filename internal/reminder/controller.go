// Package reminder owns the reminder lifecycle: validate, authorize,
// persist and schedule on create; cancel and unpersist on delete.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/medremind/internal/metrics"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/notify"
	"github.com/sandeepkv93/medremind/internal/platform"
	"go.uber.org/zap"
)

var (
	ErrPermissionDenied = errors.New("reminder: notification permission denied")
	ErrScheduling       = errors.New("reminder: notification could not be scheduled")
	ErrDuplicateID      = errors.New("reminder: duplicate reminder id")
)

// DefaultTitle is the notification title shown for every reminder.
const DefaultTitle = "MedAI Reminder"

type Authorizer interface {
	EnsureAuthorized(ctx context.Context) bool
	Status(ctx context.Context) (platform.PermissionStatus, error)
}

type Scheduler interface {
	Schedule(ctx context.Context, id, title, body string, dueAt time.Time) (platform.HandleRef, error)
	Cancel(ctx context.Context, id string) (bool, error)
	ForgetHandle(handle platform.HandleRef) (string, bool)
	Handle(id string) (platform.HandleRef, bool)
}

// RestoreReport summarizes a startup restore.
type RestoreReport struct {
	Restored int
	Fired    int
	Expired  int
	Failed   int
}

type Controller struct {
	store     *Store
	gate      Authorizer
	scheduler Scheduler
	logger    *zap.Logger
	metrics   *metrics.Metrics
	title     string
	now       func() time.Time
	newID     func() string

	// sem serializes entry points; acquiring it honours ctx.
	sem chan struct{}
}

type Option func(*Controller)

func WithTitle(title string) Option {
	return func(c *Controller) {
		if title != "" {
			c.title = title
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) {
		if newID != nil {
			c.newID = newID
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func NewController(store *Store, gate Authorizer, scheduler Scheduler, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if gate == nil {
		return nil, fmt.Errorf("permission gate cannot be nil")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	c := &Controller{
		store:     store,
		gate:      gate,
		scheduler: scheduler,
		logger:    zap.NewNop(),
		title:     DefaultTitle,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		sem:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Create validates, authorizes, persists and schedules a reminder. Every
// failure leaves the store and the scheduler as they were.
func (c *Controller) Create(ctx context.Context, text string, dueAt time.Time) (model.Reminder, error) {
	if err := model.ValidateInput(text, dueAt, c.now()); err != nil {
		c.recordFailure(metrics.ReasonValidation)
		return model.Reminder{}, err
	}
	if err := c.acquire(ctx); err != nil {
		c.recordFailure(metrics.ReasonCancelled)
		return model.Reminder{}, err
	}
	defer c.release()

	granted := c.gate.EnsureAuthorized(ctx)
	if err := ctx.Err(); err != nil {
		c.recordFailure(metrics.ReasonCancelled)
		return model.Reminder{}, err
	}
	if !granted {
		c.recordFailure(metrics.ReasonPermission)
		return model.Reminder{}, ErrPermissionDenied
	}

	// The permission prompt can take long enough for dueAt to pass.
	now := c.now()
	if !dueAt.After(now) {
		c.recordFailure(metrics.ReasonValidation)
		return model.Reminder{}, fmt.Errorf("%w: due time %s has passed", model.ErrValidation, dueAt.Format(time.RFC3339))
	}

	r := model.Reminder{
		ID:        c.newID(),
		Text:      text,
		DueAt:     dueAt,
		Status:    model.StatusPending,
		CreatedAt: now,
	}
	if err := c.store.Insert(ctx, r); err != nil {
		c.recordFailure(metrics.ReasonStorage)
		return model.Reminder{}, err
	}

	if _, err := c.scheduler.Schedule(ctx, r.ID, c.title, r.Text, r.DueAt); err != nil {
		if _, _, rmErr := c.store.Remove(context.WithoutCancel(ctx), r.ID); rmErr != nil {
			c.logger.Error("roll back reminder failed", zap.String("reminder_id", r.ID), zap.Error(rmErr))
		}
		c.recordFailure(metrics.ReasonScheduling)
		return model.Reminder{}, fmt.Errorf("%w: %w", ErrScheduling, err)
	}

	if c.metrics != nil {
		c.metrics.RemindersCreated.Inc()
	}
	c.logger.Info("reminder created",
		zap.String("reminder_id", r.ID),
		zap.Time("due_at", r.DueAt),
	)
	return r, nil
}

// Delete cancels the notification of id and removes it from the store. It
// reports whether a reminder was removed; deleting twice is harmless.
func (c *Controller) Delete(ctx context.Context, id string) (bool, error) {
	if err := c.acquire(ctx); err != nil {
		return false, err
	}
	defer c.release()

	cancelled, err := c.scheduler.Cancel(ctx, id)
	if err != nil {
		return false, fmt.Errorf("cancel notification for %s: %w", id, err)
	}
	if !cancelled {
		c.logger.Debug("no live notification to cancel", zap.String("reminder_id", id))
	}

	_, removed, err := c.store.Remove(ctx, id)
	if err != nil {
		if cancelled {
			c.rearm(ctx, id)
		}
		return false, err
	}
	if removed {
		if c.metrics != nil {
			c.metrics.RemindersDeleted.Inc()
		}
		c.logger.Info("reminder deleted", zap.String("reminder_id", id))
	}
	return removed, nil
}

func (c *Controller) List() []model.Reminder {
	return c.store.List()
}

// HandleDelivery records a delivered notification: the consumed handle is
// forgotten and the reminder is marked fired. Unknown reminders are ignored.
func (c *Controller) HandleDelivery(ctx context.Context, d platform.Delivery) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	id, owned := c.scheduler.ForgetHandle(d.Handle)
	if !owned {
		id = d.Content.Data[notify.DataKeyReminderID]
		if _, live := c.scheduler.Handle(id); live {
			c.logger.Debug("stale delivery for re-armed reminder",
				zap.String("reminder_id", id),
				zap.String("handle", string(d.Handle)),
			)
			return nil
		}
	}
	if id == "" {
		c.logger.Debug("delivery without reminder id", zap.String("handle", string(d.Handle)))
		return nil
	}

	fired, err := c.store.MarkFired(ctx, id)
	if err != nil {
		return err
	}
	if fired && c.metrics != nil {
		c.metrics.NotificationsDelivered.Inc()
	}
	c.logger.Info("reminder delivered",
		zap.String("reminder_id", id),
		zap.Bool("tracked", fired),
	)
	return nil
}

// Restore rebuilds the in-memory view from the repository. Pending reminders
// still in the future get a fresh notification; elapsed ones are dropped.
// It never prompts: the permission must already be granted.
func (c *Controller) Restore(ctx context.Context) (RestoreReport, error) {
	var report RestoreReport
	if err := c.acquire(ctx); err != nil {
		return report, err
	}
	defer c.release()

	status, err := c.gate.Status(ctx)
	if err != nil {
		return report, fmt.Errorf("query notification permission: %w", err)
	}
	if status != platform.PermissionGranted {
		return report, fmt.Errorf("%w: status is %s", ErrPermissionDenied, status)
	}

	rows, err := c.store.Load(ctx)
	if err != nil {
		return report, err
	}
	now := c.now()
	for _, r := range rows {
		if _, exists := c.store.Get(r.ID); exists {
			continue
		}
		switch {
		case r.Status == model.StatusFired:
			c.store.adopt(r)
			report.Fired++
		case r.Status == model.StatusPending && r.DueAt.After(now):
			if _, err := c.scheduler.Schedule(ctx, r.ID, c.title, r.Text, r.DueAt); err != nil {
				c.logger.Warn("restore reminder failed", zap.String("reminder_id", r.ID), zap.Error(err))
				report.Failed++
				continue
			}
			c.store.adopt(r)
			report.Restored++
		default:
			if err := c.store.purge(ctx, r.ID); err != nil {
				c.logger.Warn("drop expired reminder failed", zap.String("reminder_id", r.ID), zap.Error(err))
				report.Failed++
				continue
			}
			report.Expired++
		}
	}

	if c.metrics != nil {
		c.metrics.RemindersRestored.Add(float64(report.Restored))
		c.metrics.RemindersExpired.Add(float64(report.Expired))
	}
	c.logger.Info("reminders restored",
		zap.Int("restored", report.Restored),
		zap.Int("fired", report.Fired),
		zap.Int("expired", report.Expired),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// rearm schedules id again after its trigger was cancelled but the reminder
// could not be removed, so a pending reminder never loses its handle.
func (c *Controller) rearm(ctx context.Context, id string) {
	r, ok := c.store.Get(id)
	if !ok || r.Status != model.StatusPending || !r.DueAt.After(c.now()) {
		return
	}
	if _, err := c.scheduler.Schedule(context.WithoutCancel(ctx), r.ID, c.title, r.Text, r.DueAt); err != nil {
		c.logger.Error("re-arm reminder failed", zap.String("reminder_id", id), zap.Error(err))
	}
}

func (c *Controller) acquire(ctx context.Context) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) release() {
	<-c.sem
}

func (c *Controller) recordFailure(reason string) {
	if c.metrics != nil {
		c.metrics.CreateFailures.WithLabelValues(reason).Inc()
	}
}
