package update

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var ErrNoProgram = errors.New("update: no terminal program attached")

// TeaPrompter asks for notification permission through the running program.
// Ask blocks until the user answers the prompt or ctx is done.
type TeaPrompter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewTeaPrompter() *TeaPrompter {
	return &TeaPrompter{}
}

// Attach wires the prompter to a program, typically tea.Program.Send.
func (p *TeaPrompter) Attach(send func(tea.Msg)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send = send
}

func (p *TeaPrompter) Ask(ctx context.Context) (bool, error) {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return false, ErrNoProgram
	}

	reply := make(chan bool, 1)
	send(PermissionPromptMsg{Reply: reply})
	select {
	case allowed := <-reply:
		return allowed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
