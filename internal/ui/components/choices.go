package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/ui/theme"
)

// Choice is one selectable answer.
type Choice struct {
	Value string
	Label string
}

// ChoiceList is a single- or multi-select answer picker. In multi mode
// space toggles the highlighted choice; the value is the comma-joined set
// of toggled values in list order.
type ChoiceList struct {
	Choices []Choice
	Multi   bool
	Cursor  int
	toggled map[int]bool
	locked  bool
}

// NewChoiceList creates a picker over choices.
func NewChoiceList(choices []Choice, multi bool) ChoiceList {
	return ChoiceList{Choices: choices, Multi: multi, toggled: make(map[int]bool)}
}

// Update handles navigation and toggling. It ignores input once locked.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || c.locked {
		return c, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Choices)-1 {
			c.Cursor++
		}
	case "space":
		if c.Multi {
			c.toggled[c.Cursor] = !c.toggled[c.Cursor]
		}
	default:
		if i, ok := choiceIndex(key); ok && i < len(c.Choices) {
			c.Cursor = i
			if c.Multi {
				c.toggled[i] = !c.toggled[i]
			}
		}
	}
	return c, nil
}

// choiceIndex maps "1".."9" to a zero-based index.
func choiceIndex(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

// IsShortcut reports whether key directly picks a choice in single mode.
func (c ChoiceList) IsShortcut(key string) bool {
	i, ok := choiceIndex(key)
	return ok && !c.Multi && i < len(c.Choices)
}

// Value returns the selected value, or the joined set in multi mode.
func (c ChoiceList) Value() string {
	if len(c.Choices) == 0 {
		return ""
	}
	if !c.Multi {
		return c.Choices[c.Cursor].Value
	}
	var vals []string
	for i, ch := range c.Choices {
		if c.toggled[i] {
			vals = append(vals, ch.Value)
		}
	}
	return strings.Join(vals, ",")
}

// Lock freezes the picker while feedback is shown.
func (c *ChoiceList) Lock() { c.locked = true }

// View renders the choices.
func (c ChoiceList) View() string {
	var b strings.Builder
	for i, ch := range c.Choices {
		prefix := "  "
		if i == c.Cursor && !c.locked {
			prefix = "▸ "
		}
		mark := ""
		if c.Multi {
			mark = "[ ] "
			if c.toggled[i] {
				mark = "[x] "
			}
		}

		label := ch.Label
		if label != ch.Value {
			label = ch.Value + ". " + label
		}
		line := fmt.Sprintf("%s%d) %s%s", prefix, i+1, mark, label)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case c.locked:
			style = style.Foreground(theme.TextDim)
		case i == c.Cursor:
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
