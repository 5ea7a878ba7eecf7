package update

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/medremind/internal/views"
)

const helpMarkdown = `
## Commands

- ` + "`add <when> <text>`" + ` schedules a reminder
- ` + "`delete <row|id>`" + ` removes one after a y/n check
- ` + "`help`" + ` toggles this panel

**when**: ` + "`10m`" + `, ` + "`+1h30m`" + `, ` + "`08:30`" + ` (next occurrence) or ` + "`2026-03-12T07:45`" + `
`

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		Markdown: helpMarkdown,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: "enter", Action: "run command"},
		{Key: m.Keys.Up, Action: "previous reminder"},
		{Key: m.Keys.Down, Action: "next reminder"},
		{Key: m.Keys.Delete, Action: "delete selected (asks first)"},
		{Key: "esc", Action: "clear input"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
