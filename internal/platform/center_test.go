package platform

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/medremind/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPresenter struct {
	mu    sync.Mutex
	shown []Delivery
	err   error
}

func (p *recordingPresenter) Present(d Delivery) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, d)
	return p.err
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

func newStartedCenter(t *testing.T, opts ...CenterOption) *LocalCenter {
	t.Helper()
	center, err := NewLocalCenter(scheduler.NewEngine(16), opts...)
	require.NoError(t, err)
	center.Start()
	t.Cleanup(center.Close)
	require.NoError(t, center.EnsureChannel(context.Background(), DefaultChannel()))
	return center
}

func TestNewLocalCenterRequiresEngine(t *testing.T) {
	_, err := NewLocalCenter(nil)
	require.Error(t, err)
}

func TestRegisterTriggerDeliversToSubscribersAndPresenter(t *testing.T) {
	presenter := &recordingPresenter{err: errors.New("no display")}
	center := newStartedCenter(t, WithPresenter(presenter))

	got := make(chan Delivery, 1)
	center.Subscribe(func(d Delivery) { got <- d })

	handle, err := center.RegisterTrigger(context.Background(), Content{
		Title:     "MedAI Reminder",
		Body:      "Take medicine",
		ChannelID: "default",
		Data:      map[string]string{"reminder_id": "rem-1"},
	}, time.Now().Add(20*time.Millisecond))
	require.NoError(t, err)
	require.NotEmpty(t, handle)
	assert.Equal(t, 1, center.Pending())

	select {
	case d := <-got:
		assert.Equal(t, handle, d.Handle)
		assert.Equal(t, "Take medicine", d.Content.Body)
		assert.Equal(t, "rem-1", d.Content.Data["reminder_id"])
		assert.False(t, d.DeliveredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	assert.Equal(t, 1, presenter.count(), "presenter errors must not block subscribers")
	assert.Equal(t, 0, center.Pending())
}

func TestCancelTriggerPreventsDelivery(t *testing.T) {
	center := newStartedCenter(t)
	got := make(chan Delivery, 1)
	center.Subscribe(func(d Delivery) { got <- d })

	handle, err := center.RegisterTrigger(context.Background(), Content{Title: "t", Body: "b", ChannelID: "default"}, time.Now().Add(30*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, center.CancelTrigger(context.Background(), handle))

	err = center.CancelTrigger(context.Background(), handle)
	require.ErrorIs(t, err, ErrUnknownHandle)

	select {
	case d := <-got:
		t.Fatalf("cancelled trigger delivered: %+v", d)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestRegisterTriggerRejectsUnknownChannelAndZeroTime(t *testing.T) {
	center := newStartedCenter(t)
	_, err := center.RegisterTrigger(context.Background(), Content{ChannelID: "alarms"}, time.Now().Add(time.Minute))
	require.ErrorIs(t, err, ErrUnknownChannel)

	_, err = center.RegisterTrigger(context.Background(), Content{ChannelID: "default"}, time.Time{})
	require.ErrorIs(t, err, ErrInvalidFireTime)
}

func TestRegisterTriggerHonoursContext(t *testing.T) {
	center := newStartedCenter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := center.RegisterTrigger(ctx, Content{ChannelID: "default"}, time.Now().Add(time.Minute))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, center.Pending())
}

func TestUnsubscribeStopsCallbacks(t *testing.T) {
	center := newStartedCenter(t)
	var mu sync.Mutex
	calls := 0
	id := center.Subscribe(func(Delivery) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	assert.Equal(t, 1, center.Subscribers())
	assert.True(t, center.Unsubscribe(id))
	assert.False(t, center.Unsubscribe(id))
	assert.Equal(t, 0, center.Subscribers())

	_, err := center.RegisterTrigger(context.Background(), Content{ChannelID: "default"}, time.Now().Add(5*time.Millisecond))
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestEnsureChannelIsIdempotentAndValidated(t *testing.T) {
	center := newStartedCenter(t)
	require.NoError(t, center.EnsureChannel(context.Background(), DefaultChannel()))
	assert.Len(t, center.Channels(), 1)

	err := center.EnsureChannel(context.Background(), Channel{ID: " "})
	require.ErrorIs(t, err, ErrInvalidChannel)
	err = center.EnsureChannel(context.Background(), Channel{ID: "x", Importance: 9})
	require.ErrorIs(t, err, ErrInvalidChannel)
}

func TestClosedCenterRejectsWork(t *testing.T) {
	center, err := NewLocalCenter(scheduler.NewEngine(1))
	require.NoError(t, err)
	center.Start()
	center.Close()
	center.Close()

	_, err = center.RegisterTrigger(context.Background(), Content{}, time.Now().Add(time.Minute))
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, center.EnsureChannel(context.Background(), DefaultChannel()), ErrClosed)
}
