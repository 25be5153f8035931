// Package login signs a learner in to the portal.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/components"
	"github.com/abhisek/practiz/internal/ui/layout"
	"github.com/abhisek/practiz/internal/ui/theme"
)

const loginTimeout = 20 * time.Second

// Authenticator exchanges credentials for a saved login.
type Authenticator func(ctx context.Context, username, password string) (store.Credential, error)

type resultMsg struct {
	Credential store.Credential
	Err        error
}

// Screen asks for a username and password.
type Screen struct {
	auth     Authenticator
	portal   string
	username components.TextInput
	password components.TextInput
	focus    int
	busy     bool
	err      string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.BackHandler = (*Screen)(nil)

// New creates a login screen. portalURL is shown so the learner knows
// which portal they are signing in to.
func New(auth Authenticator, portalURL string) *Screen {
	s := &Screen{
		auth:     auth,
		portal:   portalURL,
		username: components.NewTextInput("username", 32),
		password: components.NewPasswordInput("password"),
	}
	s.password.Blur()
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.username.Init()
}

func (s *Screen) Title() string {
	return "Sign in"
}

// HandlesBack keeps Esc from popping the only screen.
func (s *Screen) HandlesBack() bool { return true }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		s.busy = false
		if msg.Err != nil {
			s.err = describe(msg.Err)
			s.password.Reset()
			return s, s.setFocus(1)
		}
		return s, func() tea.Msg { return screens.LoggedInMsg{Credential: msg.Credential} }

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			return s, s.setFocus(1 - s.focus)
		case "enter":
			if s.focus == 0 {
				return s, s.setFocus(1)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	if s.focus == 0 {
		s.username, cmd = s.username.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

func (s *Screen) setFocus(i int) tea.Cmd {
	s.focus = i
	if i == 0 {
		s.password.Blur()
		return s.username.Focus()
	}
	s.username.Blur()
	return s.password.Focus()
}

func (s *Screen) submit() tea.Cmd {
	user := strings.TrimSpace(s.username.Value())
	pass := s.password.Value()
	if user == "" || pass == "" {
		s.err = "Enter your username and password."
		return nil
	}
	s.busy = true
	s.err = ""
	auth := s.auth
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		cred, err := auth(ctx, user, pass)
		return resultMsg{Credential: cred, Err: err}
	}
}

// describe turns a login failure into a message for the learner.
func describe(err error) string {
	var apiErr *portal.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Code != 0:
		return apiErr.Msg
	case portal.IsUnauthorized(err):
		return "Wrong username or password."
	case portal.IsTemporary(err):
		return "Cannot reach the portal. Check your connection and try again."
	}
	return err.Error()
}

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	field := func(label string, in components.TextInput, focused bool) string {
		border := theme.Border
		if focused {
			border = theme.ArcadeYellow
		}
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Width(min(cw, 40)).
			Padding(0, 1).
			Render(theme.Dim.Render(label) + "\n" + in.View())
	}

	sections := []string{
		lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true).Render("Welcome back!"),
		theme.Dim.Render(s.portal),
		field("Username", s.username, s.focus == 0),
		field("Password", s.password, s.focus == 1),
	}
	switch {
	case s.busy:
		sections = append(sections, theme.Dim.Render("Signing in..."))
	case s.err != "":
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Error).Render(s.err))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return components.CabinetFrame(content, width, height)
}
