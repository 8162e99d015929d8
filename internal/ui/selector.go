package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SelectorItem is one choice in a Selector.
type SelectorItem struct {
	ID          string
	Label       string
	Description string
	Current     bool
}

type selectorKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

var defaultSelectorKeys = selectorKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Cancel: key.NewBinding(key.WithKeys("esc", "q", "ctrl+c")),
}

// Selector is an interactive list picker. It is a complete tea.Model, so it
// can run on its own with tea.NewProgram.
type Selector struct {
	title    string
	items    []SelectorItem
	keys     selectorKeys
	cursor   int
	selected int
	done     bool
}

var _ tea.Model = Selector{}

// NewSelector starts with the cursor on the current item, if any.
func NewSelector(title string, items []SelectorItem) Selector {
	cursor := 0
	for i, item := range items {
		if item.Current {
			cursor = i
			break
		}
	}
	return Selector{
		title:    title,
		items:    items,
		keys:     defaultSelectorKeys,
		cursor:   cursor,
		selected: -1,
	}
}

// Selected returns the chosen item ID, or "" when cancelled or still running.
func (s Selector) Selected() string {
	if s.selected >= 0 && s.selected < len(s.items) {
		return s.items[s.selected].ID
	}
	return ""
}

// Cancelled reports whether the user left without choosing.
func (s Selector) Cancelled() bool {
	return s.done && s.selected == -1
}

func (s Selector) Init() tea.Cmd { return nil }

func (s Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if s.done {
		return s, nil
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch {
	case key.Matches(km, s.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(km, s.keys.Down):
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case key.Matches(km, s.keys.Select):
		if len(s.items) > 0 {
			s.selected = s.cursor
		}
		s.done = true
		return s, tea.Quit
	case key.Matches(km, s.keys.Cancel):
		s.selected = -1
		s.done = true
		return s, tea.Quit
	}
	return s, nil
}

func (s Selector) View() string {
	if s.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(HelpStyle.Render(s.title + " (↑/↓ navigate, enter select, esc cancel)"))
	b.WriteString("\n\n")

	for i, item := range s.items {
		isCursor := i == s.cursor
		if isCursor {
			b.WriteString(SelectorCursor.Render(SymbolArrow) + " ")
		} else {
			b.WriteString("  ")
		}

		display := item.Label
		if display == "" {
			display = item.ID
		}
		label := fmt.Sprintf("%-20s", display)
		if isCursor {
			b.WriteString(SelectorActive.Render(label))
		} else {
			b.WriteString(SelectorItemStyle.Render(label))
		}

		desc := item.Description
		if item.Current {
			desc += " (active)"
		}
		if desc != "" {
			b.WriteString(" " + SelectorDim.Render(desc))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RunSelector shows the picker on the terminal and returns the chosen ID,
// or "" if the user cancelled.
func RunSelector(title string, items []SelectorItem, opts ...tea.ProgramOption) (string, error) {
	final, err := tea.NewProgram(NewSelector(title, items), opts...).Run()
	if err != nil {
		return "", err
	}
	return final.(Selector).Selected(), nil
}
