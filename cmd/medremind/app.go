package main

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/medremind/internal/config"
	"github.com/sandeepkv93/medremind/internal/logging"
	"github.com/sandeepkv93/medremind/internal/metrics"
	"github.com/sandeepkv93/medremind/internal/notify"
	"github.com/sandeepkv93/medremind/internal/permission"
	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"github.com/sandeepkv93/medremind/internal/scheduler"
	"github.com/sandeepkv93/medremind/internal/storage"
	"go.uber.org/zap"
)

type appOptions struct {
	prompter platform.Prompter
	// logToFile keeps log lines off a terminal owned by the UI.
	logToFile bool
}

// app holds the wired engine shared by every subcommand.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	closeLog    func()
	repo        *storage.SQLiteRepository
	center      *platform.LocalCenter
	permissions *platform.PermissionStore
	gate        *permission.Gate
	notifier    *notify.Scheduler
	listener    *notify.Listener
	store       *reminder.Store
	controller  *reminder.Controller
	metrics     *metrics.Metrics
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Log
	if opts.logToFile && logCfg.File == "" {
		logCfg.File = cfg.DefaultLogFile()
	}
	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, closeLog: closeLog, metrics: metrics.New()}
	if err := a.wire(opts); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("medremind started",
		zap.String("database", cfg.DatabasePath),
		zap.String("channel", cfg.Channel().ID),
	)
	return a, nil
}

func (a *app) wire(opts appOptions) error {
	repo, err := storage.OpenSQLite(a.cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.repo = repo

	var presenter platform.Presenter = platform.LogPresenter{Logger: a.logger}
	if a.cfg.DesktopNotifications {
		presenter = platform.NewDesktopPresenter()
	}
	a.center, err = platform.NewLocalCenter(
		scheduler.NewEngine(a.cfg.SchedulerBuffer),
		platform.WithPresenter(presenter),
		platform.WithLogger(a.logger.Named("center")),
	)
	if err != nil {
		return err
	}

	a.permissions, err = platform.NewPermissionStore(repo, opts.prompter, a.logger.Named("permission"))
	if err != nil {
		return err
	}
	channel := a.cfg.Channel()
	a.gate, err = permission.NewGate(a.permissions, a.center, channel, a.logger.Named("gate"))
	if err != nil {
		return err
	}

	a.notifier, err = notify.NewScheduler(a.center,
		notify.WithChannel(channel.ID),
		notify.WithLogger(a.logger.Named("notify")),
		notify.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}
	a.listener, err = notify.NewListener(a.center, a.logger.Named("listener"))
	if err != nil {
		return err
	}

	a.store = reminder.NewStore(repo)
	a.controller, err = reminder.NewController(a.store, a.gate, a.notifier,
		reminder.WithTitle(a.cfg.Notification.Title),
		reminder.WithLogger(a.logger.Named("reminder")),
		reminder.WithMetrics(a.metrics),
	)
	return err
}

// trackDeliveries marks reminders fired as their notifications arrive.
func (a *app) trackDeliveries(ctx context.Context) error {
	return a.listener.Start(func(d platform.Delivery) {
		if err := a.controller.HandleDelivery(ctx, d); err != nil {
			a.logger.Warn("handle delivery failed", zap.String("handle", string(d.Handle)), zap.Error(err))
		}
	})
}

func (a *app) Close() {
	if a.listener != nil {
		a.listener.Stop()
	}
	if a.center != nil {
		a.center.Close()
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Warn("close database failed", zap.Error(err))
		}
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}
