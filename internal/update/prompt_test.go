package update

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTeaPrompterRequiresProgram(t *testing.T) {
	_, err := NewTeaPrompter().Ask(context.Background())
	if !errors.Is(err, ErrNoProgram) {
		t.Fatalf("expected ErrNoProgram, got %v", err)
	}
}

func TestTeaPrompterRelaysAnswer(t *testing.T) {
	p := NewTeaPrompter()
	p.Attach(func(msg tea.Msg) {
		prompt := msg.(PermissionPromptMsg)
		go func() { prompt.Reply <- true }()
	})
	allowed, err := p.Ask(context.Background())
	if err != nil || !allowed {
		t.Fatalf("Ask = %v, %v", allowed, err)
	}
}

func TestTeaPrompterHonoursContext(t *testing.T) {
	p := NewTeaPrompter()
	p.Attach(func(tea.Msg) {})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	allowed, err := p.Ask(ctx)
	if allowed || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Ask = %v, %v", allowed, err)
	}
}
