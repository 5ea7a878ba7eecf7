package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	status     platform.PermissionStatus
	answer     platform.PermissionStatus
	queryErr   error
	requestErr error
	queries    int
	requests   int
}

func (f *fakeSource) QueryStatus(context.Context) (platform.PermissionStatus, error) {
	f.queries++
	return f.status, f.queryErr
}

func (f *fakeSource) RequestAuthorization(context.Context) (platform.PermissionStatus, error) {
	f.requests++
	if f.requestErr != nil {
		return platform.PermissionUndetermined, f.requestErr
	}
	f.status = f.answer
	return f.answer, nil
}

type fakeChannels struct {
	calls int
	err   error
}

func (f *fakeChannels) EnsureChannel(context.Context, platform.Channel) error {
	f.calls++
	return f.err
}

func TestNewGateRequiresSource(t *testing.T) {
	_, err := NewGate(nil, nil, platform.DefaultChannel(), nil)
	require.Error(t, err)
}

func TestEnsureAuthorizedGrantedSkipsRequest(t *testing.T) {
	src := &fakeSource{status: platform.PermissionGranted}
	gate, err := NewGate(src, nil, platform.DefaultChannel(), nil)
	require.NoError(t, err)

	assert.True(t, gate.EnsureAuthorized(context.Background()))
	assert.Equal(t, 0, src.requests)
}

func TestEnsureAuthorizedRequestsWhenUndetermined(t *testing.T) {
	src := &fakeSource{status: platform.PermissionUndetermined, answer: platform.PermissionGranted}
	gate, err := NewGate(src, nil, platform.DefaultChannel(), nil)
	require.NoError(t, err)

	assert.True(t, gate.EnsureAuthorized(context.Background()))
	assert.Equal(t, 1, src.requests)
}

func TestEnsureAuthorizedDenied(t *testing.T) {
	src := &fakeSource{status: platform.PermissionUndetermined, answer: platform.PermissionDenied}
	gate, err := NewGate(src, nil, platform.DefaultChannel(), nil)
	require.NoError(t, err)
	assert.False(t, gate.EnsureAuthorized(context.Background()))
}

func TestEnsureAuthorizedNeverCachesDecision(t *testing.T) {
	src := &fakeSource{status: platform.PermissionGranted}
	gate, err := NewGate(src, nil, platform.DefaultChannel(), nil)
	require.NoError(t, err)

	assert.True(t, gate.EnsureAuthorized(context.Background()))
	src.status = platform.PermissionDenied
	src.answer = platform.PermissionDenied
	assert.False(t, gate.EnsureAuthorized(context.Background()))
	src.status = platform.PermissionGranted
	assert.True(t, gate.EnsureAuthorized(context.Background()))
	assert.Equal(t, 3, src.queries)
}

func TestEnsureAuthorizedErrorsReadAsFalse(t *testing.T) {
	src := &fakeSource{queryErr: errors.New("disk gone")}
	gate, err := NewGate(src, nil, platform.DefaultChannel(), nil)
	require.NoError(t, err)
	assert.False(t, gate.EnsureAuthorized(context.Background()))

	src = &fakeSource{status: platform.PermissionUndetermined, requestErr: context.Canceled}
	gate, err = NewGate(src, nil, platform.DefaultChannel(), nil)
	require.NoError(t, err)
	assert.False(t, gate.EnsureAuthorized(context.Background()))
}

func TestChannelConfiguredOnceAndRetriedOnFailure(t *testing.T) {
	src := &fakeSource{status: platform.PermissionGranted}
	channels := &fakeChannels{err: errors.New("busy")}
	gate, err := NewGate(src, channels, platform.DefaultChannel(), nil)
	require.NoError(t, err)

	gate.EnsureAuthorized(context.Background())
	channels.err = nil
	gate.EnsureAuthorized(context.Background())
	gate.EnsureAuthorized(context.Background())
	assert.Equal(t, 2, channels.calls)
}

func TestStatusDoesNotPrompt(t *testing.T) {
	src := &fakeSource{status: platform.PermissionUndetermined, answer: platform.PermissionGranted}
	gate, err := NewGate(src, nil, platform.DefaultChannel(), nil)
	require.NoError(t, err)
	status, err := gate.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, platform.PermissionUndetermined, status)
	assert.Equal(t, 0, src.requests)
}

func TestEnsureAuthorizedLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	src := &fakeSource{status: platform.PermissionUndetermined, requestErr: errors.New("prompt closed")}
	channels := &fakeChannels{err: errors.New("center closed")}
	gate, err := NewGate(src, channels, platform.DefaultChannel(), zap.New(core))
	require.NoError(t, err)

	assert.False(t, gate.EnsureAuthorized(context.Background()))

	assert.Equal(t, 1, logs.FilterMessage("configure notification channel failed").Len())
	entries := logs.FilterMessage("request notification permission failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "prompt closed", entries[0].ContextMap()["error"])
}
