// Package app is the root Bubble Tea model: it owns the screen stack, the
// signed-in learner and the header and footer around every screen.
package app

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/labstack/gommon/log"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/logging"
	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/screens/home"
	"github.com/abhisek/practiz/internal/screens/login"
	"github.com/abhisek/practiz/internal/screens/welcome"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/layout"
)

const startupTimeout = 30 * time.Second

// Options configures the TUI.
type Options struct {
	Store *store.Store
	// Client is the portal client without a learner token. A token set on
	// it is used instead of the saved login.
	Client *portal.Client
	Logger *log.Logger
	// Hints is optional.
	Hints   screens.HintFiller
	Version string
	// SkipIntro starts without the welcome splash.
	SkipIntro bool
	// Start, when set, is pushed above the home screen once a learner is
	// signed in.
	Start   func(svc *screens.Services) screen.Screen
	Timings practice.Timings
}

type pendingMsg int

type flushDoneMsg struct {
	Report delivery.Report
	Err    error
}

type compatMsg struct {
	Compat portal.Compatibility
	Err    error
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts    Options
	router  *router.Router
	svc     *screens.Services
	home    *home.HomeScreen
	pending int
	width   int
	height  int
}

// newAppModel restores a saved login, if any, and builds the first screen.
func newAppModel(ctx context.Context, opts Options) (AppModel, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard("tui")
	}
	if opts.Timings == (practice.Timings{}) {
		opts.Timings = practice.DefaultTimings()
	}
	m := AppModel{opts: opts}

	token := opts.Client.Token()
	if token == "" {
		cred, err := opts.Store.CredentialRepo().Load(ctx, opts.Client.BaseURL())
		if err != nil {
			return AppModel{}, fmt.Errorf("load saved login: %w", err)
		}
		if cred != nil {
			token = cred.Token
		}
	}

	var root screen.Screen
	greeting := "Sign in to start"
	if token != "" {
		svc, err := m.services(token)
		if err != nil {
			opts.Logger.Warnf("saved login unusable, signing in again: %v", err)
		} else {
			m.signIn(svc)
			root = m.home
			greeting = fmt.Sprintf("Hi %s!", svc.Learner.Username)
		}
	}
	if root == nil {
		root = m.loginScreen()
	}

	if opts.SkipIntro || opts.Start != nil {
		m.router = router.New(root)
	} else {
		m.router = router.New(welcome.New(func() screen.Screen { return root }, greeting))
	}
	return m, nil
}

// services builds the per-learner services for token.
func (m *AppModel) services(token string) (*screens.Services, error) {
	claims, err := portal.Learner(token)
	if err != nil {
		return nil, err
	}
	client := m.opts.Client.WithToken(token)
	outbox := m.opts.Store.OutboxRepo()
	return &screens.Services{
		Learner:  claims,
		Portal:   client,
		Events:   m.opts.Store.EventRepo(),
		Outbox:   outbox,
		Delivery: delivery.New(outbox, client, delivery.WithLogger(m.opts.Logger)),
		Hints:    m.opts.Hints,
		Logger:   m.opts.Logger,
		Timings:  m.opts.Timings,
	}, nil
}

func (m *AppModel) signIn(svc *screens.Services) {
	m.svc = svc
	m.home = home.New(svc)
}

func (m *AppModel) loginScreen() screen.Screen {
	return login.New(m.authenticate, m.opts.Client.BaseURL())
}

// authenticate logs in and saves the token for the next start.
func (m *AppModel) authenticate(ctx context.Context, username, password string) (store.Credential, error) {
	res, err := m.opts.Client.Login(ctx, username, password)
	if err != nil {
		return store.Credential{}, err
	}
	cred := store.Credential{
		PortalURL: m.opts.Client.BaseURL(),
		Token:     res.Token,
		Username:  res.User.Username,
		LearnerID: res.User.ID,
		Role:      string(res.User.Role),
		SavedAt:   time.Now(),
	}
	if err := m.opts.Store.CredentialRepo().Save(ctx, cred); err != nil {
		return store.Credential{}, fmt.Errorf("save login: %w", err)
	}
	return cred, nil
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init()}
	if m.svc != nil {
		cmds = append(cmds, m.startup())
		if m.opts.Start != nil {
			cmds = append(cmds, router.Push(m.opts.Start(m.svc)))
		}
	}
	return tea.Batch(cmds...)
}

// startup sends what earlier runs left queued and checks whether the
// portal still accepts this build.
func (m AppModel) startup() tea.Cmd {
	svc := m.svc
	client := m.opts.Client
	version := m.opts.Version
	flush := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		rep, err := svc.Delivery.Flush(ctx)
		return flushDoneMsg{Report: rep, Err: err}
	}
	compat := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		c, err := client.CheckCompatibility(ctx, version)
		return compatMsg{Compat: c, Err: err}
	}
	return tea.Batch(flush, compat)
}

func (m AppModel) countPending() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	outbox := m.svc.Outbox
	return func() tea.Msg {
		counts, err := outbox.Counts(context.Background())
		if err != nil {
			return pendingMsg(0)
		}
		return pendingMsg(counts[store.OutboxPending])
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.router.CloseAll()
			return m, tea.Quit
		case "esc":
			if b, ok := m.router.Active().(screen.BackHandler); ok && b.HandlesBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case screens.LoggedInMsg:
		svc, err := m.services(msg.Credential.Token)
		if err != nil {
			m.opts.Logger.Errorf("portal issued an unreadable token: %v", err)
			return m, nil
		}
		m.signIn(svc)
		m.opts.Logger.Infof("signed in as %s", svc.Learner.Username)
		cmds := []tea.Cmd{m.router.Reset(m.home), m.startup(), m.countPending()}
		if m.opts.Start != nil {
			cmds = append(cmds, router.Push(m.opts.Start(m.svc)))
		}
		return m, tea.Batch(cmds...)

	case screens.LogoutMsg:
		if err := m.opts.Store.CredentialRepo().Clear(context.Background(), m.opts.Client.BaseURL()); err != nil {
			m.opts.Logger.Warnf("clear saved login: %v", err)
		}
		m.svc, m.home, m.pending = nil, nil, 0
		return m, m.router.Reset(m.loginScreen())

	case pendingMsg:
		m.pending = int(msg)
		return m, nil

	case flushDoneMsg:
		if msg.Err != nil {
			m.opts.Logger.Warnf("startup flush: %v", msg.Err)
		} else if msg.Report.Delivered > 0 {
			m.opts.Logger.Infof("sent %d queued results", msg.Report.Delivered)
		}
		return m, tea.Batch(m.countPending(), m.router.Update(screens.OutboxChangedMsg{}))

	case compatMsg:
		if msg.Err != nil {
			m.opts.Logger.Warnf("portal version check: %v", msg.Err)
			return m, nil
		}
		if !msg.Compat.OK && m.home != nil {
			m.home.SetNote(fmt.Sprintf("This app (%s) is older than the portal needs (%s). Please update.",
				msg.Compat.Current, msg.Compat.Minimum))
		}
		return m, nil

	case screens.OutboxChangedMsg:
		return m, tea.Batch(m.countPending(), m.router.Update(msg))
	}

	return m, m.router.Update(msg)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	var learner string
	if m.svc != nil {
		learner = m.svc.Learner.Username
	}
	header := layout.RenderHeader(active.Title(), learner, m.pending, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the TUI and blocks until the learner quits.
func Run(ctx context.Context, opts Options) error {
	m, err := newAppModel(ctx, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m).Run()
	m.router.CloseAll()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
