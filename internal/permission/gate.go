// Package permission gates notification scheduling on the user's
// authorization. The gate never caches a decision: every call re-queries
// the source, since the user can revoke permission outside the app.
package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandeepkv93/medremind/internal/platform"
	"go.uber.org/zap"
)

type Source interface {
	QueryStatus(ctx context.Context) (platform.PermissionStatus, error)
	RequestAuthorization(ctx context.Context) (platform.PermissionStatus, error)
}

type ChannelConfigurer interface {
	EnsureChannel(ctx context.Context, ch platform.Channel) error
}

type Gate struct {
	source   Source
	channels ChannelConfigurer
	channel  platform.Channel
	logger   *zap.Logger

	mu           sync.Mutex
	channelReady bool
}

func NewGate(source Source, channels ChannelConfigurer, channel platform.Channel, logger *zap.Logger) (*Gate, error) {
	if source == nil {
		return nil, fmt.Errorf("permission source cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		source:   source,
		channels: channels,
		channel:  channel,
		logger:   logger,
	}, nil
}

// EnsureAuthorized reports whether notifications may be scheduled, asking
// the user when the status is still undetermined. It blocks for as long as
// the user takes to answer, or until ctx is done. Failures read as false.
func (g *Gate) EnsureAuthorized(ctx context.Context) bool {
	g.ensureChannel(ctx)

	status, err := g.source.QueryStatus(ctx)
	if err != nil {
		g.logger.Warn("query notification permission failed", zap.Error(err))
		return false
	}
	if status == platform.PermissionGranted {
		return true
	}

	status, err = g.source.RequestAuthorization(ctx)
	if err != nil {
		g.logger.Warn("request notification permission failed", zap.Error(err))
		return false
	}
	if status != platform.PermissionGranted {
		g.logger.Info("notification permission not granted", zap.String("status", string(status)))
		return false
	}
	return true
}

// Status reports the current flag without prompting.
func (g *Gate) Status(ctx context.Context) (platform.PermissionStatus, error) {
	return g.source.QueryStatus(ctx)
}

func (g *Gate) ensureChannel(ctx context.Context) {
	if g.channels == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.channelReady {
		return
	}
	if err := g.channels.EnsureChannel(ctx, g.channel); err != nil {
		g.logger.Warn("configure notification channel failed", zap.String("channel", g.channel.ID), zap.Error(err))
		return
	}
	g.channelReady = true
}
