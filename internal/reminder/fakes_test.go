package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/medremind/internal/notify"
	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/sandeepkv93/medremind/internal/storage"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeGate struct {
	mu       sync.Mutex
	status   platform.PermissionStatus
	requests int
	// block, when set, holds EnsureAuthorized until closed or ctx is done.
	block chan struct{}
}

func (g *fakeGate) EnsureAuthorized(ctx context.Context) bool {
	g.mu.Lock()
	status := g.status
	block := g.block
	if status != platform.PermissionGranted {
		g.requests++
	}
	g.mu.Unlock()

	if status == platform.PermissionGranted {
		return true
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return false
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status == platform.PermissionGranted
}

func (g *fakeGate) Status(context.Context) (platform.PermissionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, nil
}

func (g *fakeGate) set(status platform.PermissionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = status
}

type fakePlatform struct {
	mu          sync.Mutex
	next        int
	live        map[platform.HandleRef]string
	registerErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{live: make(map[platform.HandleRef]string)}
}

func (f *fakePlatform) RegisterTrigger(_ context.Context, content platform.Content, _ time.Time) (platform.HandleRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return "", f.registerErr
	}
	f.next++
	h := platform.HandleRef(fmt.Sprintf("h-%d", f.next))
	f.live[h] = content.Data[notify.DataKeyReminderID]
	return h, nil
}

func (f *fakePlatform) CancelTrigger(_ context.Context, handle platform.HandleRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[handle]; !ok {
		return platform.ErrUnknownHandle
	}
	delete(f.live, handle)
	return nil
}

func (f *fakePlatform) fire(handle platform.HandleRef) platform.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.live[handle]
	delete(f.live, handle)
	return platform.Delivery{
		Handle:  handle,
		Content: platform.Content{Data: map[string]string{notify.DataKeyReminderID: id}},
	}
}

func (f *fakePlatform) liveFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, owner := range f.live {
		if owner == id {
			n++
		}
	}
	return n
}

func (f *fakePlatform) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

type memRepo struct {
	mu        sync.Mutex
	rows      []storage.Reminder
	createErr error
	deleteErr error
}

func (m *memRepo) CreateReminder(_ context.Context, in storage.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.rows {
		if r.ID == in.ID {
			return storage.ErrDuplicate
		}
	}
	m.rows = append(m.rows, in)
	return nil
}

func (m *memRepo) UpdateReminderStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memRepo) DeleteReminder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memRepo) ListReminders(_ context.Context, _ storage.ReminderListFilter) ([]storage.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Reminder, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

var errPlatformDown = errors.New("platform down")

type harness struct {
	controller *Controller
	store      *Store
	scheduler  *notify.Scheduler
	platform   *fakePlatform
	gate       *fakeGate
	now        time.Time
}

func newHarness(t *testing.T, repo Repository, status platform.PermissionStatus) *harness {
	t.Helper()
	h := &harness{
		store:    NewStore(repo),
		platform: newFakePlatform(),
		gate:     &fakeGate{status: status},
		now:      baseTime,
	}
	clock := func() time.Time { return h.now }
	sched, err := notify.NewScheduler(h.platform, notify.WithClock(clock))
	require.NoError(t, err)
	h.scheduler = sched

	ids := 0
	controller, err := NewController(h.store, h.gate, sched,
		WithClock(clock),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("rem-%d", ids)
		}),
	)
	require.NoError(t, err)
	h.controller = controller
	return h
}
