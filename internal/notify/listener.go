package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sandeepkv93/medremind/internal/platform"
	"go.uber.org/zap"
)

var ErrNilCallback = errors.New("notify: delivery callback is required")

type Subscriber interface {
	Subscribe(fn func(platform.Delivery)) platform.SubscriptionID
	Unsubscribe(id platform.SubscriptionID) bool
}

// Listener holds at most one delivery subscription. Its lifetime follows the
// screen that shows reminders: Start on mount, Stop on unmount.
type Listener struct {
	source Subscriber
	logger *zap.Logger

	mu     sync.Mutex
	sub    platform.SubscriptionID
	active bool
}

func NewListener(source Subscriber, logger *zap.Logger) (*Listener, error) {
	if source == nil {
		return nil, fmt.Errorf("subscriber cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{source: source, logger: logger}, nil
}

// Start subscribes onDelivered. A second Start replaces the previous
// subscription instead of adding another one.
func (l *Listener) Start(onDelivered func(platform.Delivery)) error {
	if onDelivered == nil {
		return ErrNilCallback
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		l.source.Unsubscribe(l.sub)
	}
	l.sub = l.source.Subscribe(func(d platform.Delivery) {
		l.logger.Debug("notification received",
			zap.String("handle", string(d.Handle)),
			zap.String("reminder_id", d.Content.Data[DataKeyReminderID]),
		)
		onDelivered(d)
	})
	l.active = true
	return nil
}

func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.source.Unsubscribe(l.sub)
	l.active = false
}

func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
