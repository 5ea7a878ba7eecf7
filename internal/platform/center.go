package platform

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/medremind/internal/scheduler"
	"go.uber.org/zap"
)

// LocalCenter is an in-process notification center. Triggers are queued on a
// scheduler.Engine; fired triggers are shown through the Presenter and then
// fanned out to subscribers.
type LocalCenter struct {
	engine    *scheduler.Engine
	presenter Presenter
	logger    *zap.Logger
	newHandle func() HandleRef
	now       func() time.Time

	mu       sync.RWMutex
	channels map[string]Channel
	subs     map[SubscriptionID]func(Delivery)
	nextSub  SubscriptionID
	started  bool
	closed   bool
	done     chan struct{}
}

type CenterOption func(*LocalCenter)

func WithPresenter(p Presenter) CenterOption {
	return func(c *LocalCenter) {
		if p != nil {
			c.presenter = p
		}
	}
}

func WithLogger(logger *zap.Logger) CenterOption {
	return func(c *LocalCenter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewLocalCenter(engine *scheduler.Engine, opts ...CenterOption) (*LocalCenter, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	c := &LocalCenter{
		engine:    engine,
		presenter: NoopPresenter{},
		logger:    zap.NewNop(),
		newHandle: func() HandleRef { return HandleRef(uuid.NewString()) },
		now:       time.Now,
		channels:  make(map[string]Channel),
		subs:      make(map[SubscriptionID]func(Delivery)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start launches the engine and the delivery pump. It is idempotent.
func (c *LocalCenter) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	c.engine.Start()
	go c.pump()
}

// Close stops the engine and waits for in-flight deliveries to finish.
func (c *LocalCenter) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	c.engine.Stop()
	if started {
		<-c.done
	}
}

func (c *LocalCenter) EnsureChannel(ctx context.Context, ch Channel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ch.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.channels[ch.ID] = ch
	return nil
}

func (c *LocalCenter) Channels() []Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *LocalCenter) RegisterTrigger(ctx context.Context, content Content, fireAt time.Time) (HandleRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fireAt.IsZero() {
		return "", ErrInvalidFireTime
	}

	c.mu.RLock()
	closed := c.closed
	_, knownChannel := c.channels[content.ChannelID]
	c.mu.RUnlock()
	if closed {
		return "", ErrClosed
	}
	if content.ChannelID != "" && !knownChannel {
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, content.ChannelID)
	}

	handle := c.newHandle()
	err := c.engine.Schedule(scheduler.Trigger{
		Handle:    string(handle),
		ChannelID: content.ChannelID,
		Title:     content.Title,
		Body:      content.Body,
		Data:      maps.Clone(content.Data),
		FireAt:    fireAt,
	})
	if err != nil {
		return "", fmt.Errorf("register trigger: %w", err)
	}
	return handle, nil
}

// CancelTrigger voids a pending trigger. Triggers that already fired or were
// never registered yield ErrUnknownHandle.
func (c *LocalCenter) CancelTrigger(ctx context.Context, handle HandleRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.engine.Cancel(string(handle)) {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	return nil
}

func (c *LocalCenter) Subscribe(fn func(Delivery)) SubscriptionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.subs[c.nextSub] = fn
	return c.nextSub
}

func (c *LocalCenter) Unsubscribe(id SubscriptionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[id]; !ok {
		return false
	}
	delete(c.subs, id)
	return true
}

func (c *LocalCenter) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Pending reports how many triggers are still waiting to fire.
func (c *LocalCenter) Pending() int {
	return c.engine.Pending()
}

func (c *LocalCenter) Dropped() uint64 {
	return c.engine.Dropped()
}

func (c *LocalCenter) pump() {
	defer close(c.done)
	for tr := range c.engine.C() {
		d := Delivery{
			Handle: HandleRef(tr.Handle),
			Content: Content{
				Title:     tr.Title,
				Body:      tr.Body,
				ChannelID: tr.ChannelID,
				Data:      tr.Data,
			},
			DeliveredAt: c.now(),
		}
		if err := c.presenter.Present(d); err != nil {
			c.logger.Warn("present notification failed", zap.String("handle", tr.Handle), zap.Error(err))
		}

		c.mu.RLock()
		subs := make([]func(Delivery), 0, len(c.subs))
		ids := make([]SubscriptionID, 0, len(c.subs))
		for id := range c.subs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			subs = append(subs, c.subs[id])
		}
		c.mu.RUnlock()

		for _, fn := range subs {
			fn(d)
		}
	}
}
