package login

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/store"
)

func typeText(s *Screen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func enter(s *Screen) tea.Cmd {
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return cmd
}

// settle runs the login command and feeds its result back to the screen.
func settle(t *testing.T, s *Screen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := s.Update(cmd())
	return next
}

func TestLogin_Success(t *testing.T) {
	var gotUser, gotPass string
	s := New(func(_ context.Context, u, p string) (store.Credential, error) {
		gotUser, gotPass = u, p
		return store.Credential{Username: u, LearnerID: "stu-1", Token: "tok"}, nil
	}, "http://portal.test")
	s.Init()

	typeText(s, "mia ")
	enter(s) // moves to password
	assert.Equal(t, 1, s.focus)
	typeText(s, "secret")

	cmd := enter(s)
	assert.True(t, s.busy)
	assert.Contains(t, s.View(80, 24), "Signing in...")

	next := settle(t, s, cmd)
	require.NotNil(t, next)
	msg := next()
	assert.Equal(t, "mia", gotUser)
	assert.Equal(t, "secret", gotPass)
	require.IsType(t, screens.LoggedInMsg{}, msg)
	assert.Equal(t, "stu-1", msg.(screens.LoggedInMsg).Credential.LearnerID)
	assert.False(t, s.busy)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"wrong password", &portal.APIError{Method: "POST", Path: "/auth/login", Status: 401}, "Wrong username or password."},
		{"envelope", &portal.APIError{Method: "POST", Path: "/auth/login", Status: 200, Code: 4001, Msg: "account disabled"}, "account disabled"},
		{"offline", &portal.APIError{Method: "POST", Path: "/auth/login", Status: 502}, "Cannot reach the portal"},
		{"other", errors.New("login: response has no token"), "login: response has no token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(func(context.Context, string, string) (store.Credential, error) {
				return store.Credential{}, tc.err
			}, "http://portal.test")
			typeText(s, "mia")
			s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
			typeText(s, "nope")

			settle(t, s, enter(s))
			assert.False(t, s.busy)
			assert.Equal(t, tc.want, s.err[:len(tc.want)])
			assert.Empty(t, s.password.Value(), "password cleared after a failure")
			assert.Equal(t, 1, s.focus)
		})
	}
}

func TestLogin_RequiresBothFields(t *testing.T) {
	called := false
	s := New(func(context.Context, string, string) (store.Credential, error) {
		called = true
		return store.Credential{}, nil
	}, "http://portal.test")
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	cmd := enter(s)
	assert.Nil(t, cmd)
	assert.False(t, called)
	assert.Contains(t, s.View(80, 24), "Enter your username and password.")
}

func TestLogin_TabTogglesFocus(t *testing.T) {
	s := New(nil, "")
	assert.Equal(t, 0, s.focus)
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	assert.Equal(t, 1, s.focus)
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 0, s.focus)
	assert.True(t, s.HandlesBack())
}
