package notify

import (
	"sync"
	"testing"

	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	mu   sync.Mutex
	next platform.SubscriptionID
	subs map[platform.SubscriptionID]func(platform.Delivery)
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{subs: make(map[platform.SubscriptionID]func(platform.Delivery))}
}

func (f *fakeSubscriber) Subscribe(fn func(platform.Delivery)) platform.SubscriptionID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.subs[f.next] = fn
	return f.next
}

func (f *fakeSubscriber) Unsubscribe(id platform.SubscriptionID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subs[id]
	delete(f.subs, id)
	return ok
}

func (f *fakeSubscriber) deliver(d platform.Delivery) {
	f.mu.Lock()
	fns := make([]func(platform.Delivery), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(d)
	}
}

func (f *fakeSubscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func TestNewListenerRequiresSubscriber(t *testing.T) {
	_, err := NewListener(nil, nil)
	require.Error(t, err)
}

func TestListenerStartRejectsNilCallback(t *testing.T) {
	l, err := NewListener(newFakeSubscriber(), nil)
	require.NoError(t, err)
	require.ErrorIs(t, l.Start(nil), ErrNilCallback)
	assert.False(t, l.Active())
}

func TestListenerDeliversOnce(t *testing.T) {
	src := newFakeSubscriber()
	l, err := NewListener(src, nil)
	require.NoError(t, err)

	var got []platform.Delivery
	require.NoError(t, l.Start(func(d platform.Delivery) { got = append(got, d) }))
	assert.True(t, l.Active())

	src.deliver(platform.Delivery{Handle: "h-1", Content: platform.Content{Data: map[string]string{DataKeyReminderID: "r1"}}})
	require.Len(t, got, 1)
	assert.Equal(t, platform.HandleRef("h-1"), got[0].Handle)
}

func TestListenerRestartReplacesSubscription(t *testing.T) {
	src := newFakeSubscriber()
	l, err := NewListener(src, nil)
	require.NoError(t, err)

	first, second := 0, 0
	require.NoError(t, l.Start(func(platform.Delivery) { first++ }))
	require.NoError(t, l.Start(func(platform.Delivery) { second++ }))
	assert.Equal(t, 1, src.count())

	src.deliver(platform.Delivery{Handle: "h-1"})
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestListenerStopDetaches(t *testing.T) {
	src := newFakeSubscriber()
	l, err := NewListener(src, nil)
	require.NoError(t, err)

	calls := 0
	require.NoError(t, l.Start(func(platform.Delivery) { calls++ }))
	l.Stop()
	l.Stop()
	assert.False(t, l.Active())
	assert.Equal(t, 0, src.count())

	src.deliver(platform.Delivery{Handle: "h-1"})
	assert.Equal(t, 0, calls)
}
