package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func sampleChoices() []Choice {
	return []Choice{{Value: "A", Label: "nine"}, {Value: "B", Label: "ten"}, {Value: "C", Label: "twelve"}}
}

func TestChoiceList_Single(t *testing.T) {
	c := NewChoiceList(sampleChoices(), false)
	if got := c.Value(); got != "A" {
		t.Errorf("initial value = %q, want A", got)
	}

	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if got := c.Value(); got != "C" {
		t.Errorf("value after moving past the end = %q, want C", got)
	}

	c, _ = c.Update(key('2'))
	if got := c.Value(); got != "B" {
		t.Errorf("value after shortcut = %q, want B", got)
	}
	if !c.IsShortcut("2") || c.IsShortcut("4") {
		t.Error("shortcut keys must map to existing choices only")
	}
}

func TestChoiceList_Multi(t *testing.T) {
	c := NewChoiceList(sampleChoices(), true)
	if got := c.Value(); got != "" {
		t.Errorf("nothing toggled: value = %q, want empty", got)
	}

	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeySpace})
	c, _ = c.Update(key('3'))
	if got := c.Value(); got != "A,C" {
		t.Errorf("value = %q, want A,C", got)
	}

	c, _ = c.Update(key('1'))
	if got := c.Value(); got != "C" {
		t.Errorf("value after untoggle = %q, want C", got)
	}
	if c.IsShortcut("1") {
		t.Error("multi mode has no submit shortcuts")
	}
}

func TestChoiceList_Locked(t *testing.T) {
	c := NewChoiceList(sampleChoices(), false)
	c.Lock()
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if c.Cursor != 0 {
		t.Error("locked picker must ignore input")
	}
	if c.View() == "" {
		t.Error("expected non-empty view")
	}
}

func TestProgressBar(t *testing.T) {
	p := NewProgressBar("", 3, 4, 30)
	if p.Percent() != 0.75 {
		t.Errorf("Percent = %v, want 0.75", p.Percent())
	}
	if NewProgressBar("", 1, 0, 30).Percent() != 0 {
		t.Error("empty total must render as 0%")
	}
	if p.View() == "" {
		t.Error("expected non-empty view")
	}
}
