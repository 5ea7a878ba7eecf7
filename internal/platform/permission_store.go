package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/medremind/internal/storage"
	"go.uber.org/zap"
)

const permissionSettingKey = "notifications.permission"

// SettingsRepository is the slice of storage the permission flag lives in.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (storage.Setting, error)
	PutSetting(ctx context.Context, in storage.Setting) error
	DeleteSetting(ctx context.Context, key string) error
}

// Prompter asks the user to allow notifications. Ask blocks until the user
// answers or ctx is done.
type Prompter interface {
	Ask(ctx context.Context) (bool, error)
}

type PromptFunc func(ctx context.Context) (bool, error)

func (f PromptFunc) Ask(ctx context.Context) (bool, error) { return f(ctx) }

// PermissionStore keeps the process-wide notification permission flag in
// the settings table. Like a phone OS it prompts only while the status is
// undetermined; a denied status has to be changed through Set.
type PermissionStore struct {
	settings SettingsRepository
	prompter Prompter
	logger   *zap.Logger
}

func NewPermissionStore(settings SettingsRepository, prompter Prompter, logger *zap.Logger) (*PermissionStore, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings repository cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionStore{settings: settings, prompter: prompter, logger: logger}, nil
}

func (p *PermissionStore) QueryStatus(ctx context.Context) (PermissionStatus, error) {
	setting, err := p.settings.GetSetting(ctx, permissionSettingKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return PermissionUndetermined, nil
		}
		return "", fmt.Errorf("query permission: %w", err)
	}
	return ParsePermissionStatus(setting.Value)
}

func (p *PermissionStore) RequestAuthorization(ctx context.Context) (PermissionStatus, error) {
	status, err := p.QueryStatus(ctx)
	if err != nil {
		return "", err
	}
	if status != PermissionUndetermined {
		return status, nil
	}

	if p.prompter == nil {
		p.logger.Debug("permission undetermined and no prompter configured")
		return PermissionUndetermined, nil
	}

	allowed, err := p.prompter.Ask(ctx)
	if err != nil {
		return PermissionUndetermined, fmt.Errorf("permission prompt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return PermissionUndetermined, err
	}
	decision := PermissionDenied
	if allowed {
		decision = PermissionGranted
	}
	if err := p.Set(ctx, decision); err != nil {
		return "", err
	}
	p.logger.Info("notification permission decided", zap.String("status", string(decision)))
	return decision, nil
}

// Set changes the flag the way a user would in system settings.
func (p *PermissionStore) Set(ctx context.Context, status PermissionStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPermission, status)
	}
	if status == PermissionUndetermined {
		return p.Reset(ctx)
	}
	if err := p.settings.PutSetting(ctx, storage.Setting{Key: permissionSettingKey, Value: string(status)}); err != nil {
		return fmt.Errorf("store permission: %w", err)
	}
	return nil
}

// Reset returns the flag to undetermined so the next request prompts again.
func (p *PermissionStore) Reset(ctx context.Context) error {
	err := p.settings.DeleteSetting(ctx, permissionSettingKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("reset permission: %w", err)
	}
	return nil
}
