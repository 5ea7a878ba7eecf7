package platform

import (
	"os/exec"
	"runtime"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Presenter shows a delivered notification to the user.
type Presenter interface {
	Present(Delivery) error
}

type NoopPresenter struct{}

func (NoopPresenter) Present(Delivery) error { return nil }

// DesktopPresenter posts deliveries as desktop notifications. The zero value
// presents nothing.
type DesktopPresenter struct {
	notify func(title, body string) error
}

func NewDesktopPresenter() DesktopPresenter {
	if runtime.GOOS == "darwin" {
		return DesktopPresenter{notify: runOsascript}
	}
	return DesktopPresenter{notify: func(title, body string) error {
		return beeep.Notify(title, body, "")
	}}
}

func (p DesktopPresenter) Present(d Delivery) error {
	if p.notify == nil {
		return nil
	}
	return p.notify(d.Content.Title, d.Content.Body)
}

// osascriptArgs hands title and body to the script as run arguments, so the
// text is never part of the script source.
func osascriptArgs(title, body string) []string {
	return []string{
		"-e", "on run argv",
		"-e", "display notification (item 1 of argv) with title (item 2 of argv)",
		"-e", "end run",
		body,
		title,
	}
}

func runOsascript(title, body string) error {
	return exec.Command("osascript", osascriptArgs(title, body)...).Run()
}

type LogPresenter struct {
	Logger *zap.Logger
}

func (p LogPresenter) Present(d Delivery) error {
	if p.Logger == nil {
		return nil
	}
	p.Logger.Info("notification presented",
		zap.String("handle", string(d.Handle)),
		zap.String("title", d.Content.Title),
		zap.String("body", d.Content.Body),
	)
	return nil
}
