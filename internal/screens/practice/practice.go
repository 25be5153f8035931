package practice

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	engine "github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/screens/summary"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/components"
	"github.com/abhisek/practiz/internal/ui/layout"
)

const (
	loadTimeout    = 30 * time.Second
	publishTimeout = 30 * time.Second
	frameInterval  = 150 * time.Millisecond
)

// Screen runs one practice or homework session.
type Screen struct {
	svc   *screens.Services
	src   engine.Source
	cfg   engine.Config
	title string

	session *engine.Session
	loading bool
	loadErr error
	hinted  int

	quitConfirm bool
	publishing  bool
	closed      bool

	input      components.TextInput
	choices    components.ChoiceList
	useChoices bool
	notice     string

	frame    int
	balloons int

	now func() time.Time
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Closer = (*Screen)(nil)
var _ screen.BackHandler = (*Screen)(nil)

// New creates a session screen over src. title names the session in the
// header; for homework it is also the name of the saved result.
func New(svc *screens.Services, src engine.Source, title string) *Screen {
	s := &Screen{
		svc:   svc,
		src:   src,
		title: title,
		cfg: engine.Config{
			SessionID:  uuid.NewString(),
			LearnerID:  svc.Learner.UserID,
			HomeworkID: src.HomeworkID,
			Subject:    src.Subject,
			Grade:      src.Grade,
			Timings:    svc.Timings,
		},
		loading: true,
		input:   components.NewTextInput("Type your answer...", 64),
		now:     time.Now,
	}
	if src.IsHomework() {
		s.cfg.Name = title
	}
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.load()
}

func (s *Screen) Title() string {
	if s.title != "" {
		return s.title
	}
	return "Practice"
}

// HandlesBack reports that Esc opens the quit dialog instead of popping.
func (s *Screen) HandlesBack() bool { return true }

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.loadErr != nil:
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Back"}}
	case s.session == nil || s.publishing:
		return nil
	case s.quitConfirm:
		return []layout.KeyHint{{Key: "Y", Description: "Leave"}, {Key: "N", Description: "Keep going"}}
	}
	if r := s.session.Reward(); r != nil {
		if r.Blocking() {
			return []layout.KeyHint{{Key: "Space", Description: "Pop"}, {Key: "Enter", Description: "Done"}}
		}
		return []layout.KeyHint{{Key: "Esc", Description: "Leave"}}
	}
	if s.useChoices && s.choices.Multi {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Move"},
			{Key: "Space", Description: "Toggle"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{{Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Quit"}}
}

// Close tears the session down. Pending transitions are discarded and an
// unfinished session is recorded as abandoned.
func (s *Screen) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.session == nil {
		return
	}
	finished := s.session.Result() != nil
	s.session.Close()
	if !finished {
		c := s.session.Counters()
		s.record(func(ctx context.Context) error {
			return s.svc.Events.AppendSessionEvent(ctx, store.SessionEventData{
				SessionID:    s.cfg.SessionID,
				Action:       store.SessionAbandon,
				Kind:         string(s.session.Config().Kind),
				LearnerID:    s.cfg.LearnerID,
				HomeworkID:   s.cfg.HomeworkID,
				Total:        c.TotalInitial,
				CorrectCount: c.Finished,
				DurationSecs: int(s.now().Sub(s.session.StartedAt()).Seconds()),
			})
		})
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s.handleLoaded(msg)
	case transitionMsg:
		return s.handleTransition(msg.T)
	case frameMsg:
		return s.handleFrame()
	case publishedMsg:
		next := summary.New(msg.Result, msg.Status, msg.Err)
		return s, tea.Batch(
			func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} },
			func() tea.Msg { return screens.OutboxChangedMsg{} },
		)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.session != nil && !s.useChoices {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// load fetches questions and rules, fills missing hints, and starts the
// session.
func (s *Screen) load() tea.Cmd {
	svc, src, cfg := s.svc, s.src, s.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		qs, rules, err := engine.Load(ctx, svc.Portal, svc.Portal, src)
		if err != nil {
			return loadedMsg{Err: err}
		}
		hinted := 0
		if svc.Hints != nil {
			qs, hinted = svc.Hints.Fill(ctx, qs)
		}
		sess, err := engine.New(cfg, qs, rules, svc.Rand, time.Now())
		if err != nil {
			return loadedMsg{Err: &engine.BootstrapError{Stage: "session", Err: err}}
		}
		return loadedMsg{Session: sess, Hinted: hinted}
	}
}

func (s *Screen) handleLoaded(msg loadedMsg) (screen.Screen, tea.Cmd) {
	s.loading = false
	if s.closed {
		return s, nil
	}
	if msg.Err != nil {
		s.loadErr = msg.Err
		s.svc.Log().Warnf("session %s bootstrap failed: %v", s.cfg.SessionID, msg.Err)
		return s, nil
	}

	s.session = msg.Session
	s.hinted = msg.Hinted
	c := s.session.Counters()
	s.svc.Log().Infof("session %s started: %d questions, %d rules, %d generated hints",
		s.cfg.SessionID, c.TotalInitial, len(s.session.ApplicableRules()), msg.Hinted)
	s.record(func(ctx context.Context) error {
		cfg := s.session.Config()
		return s.svc.Events.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID:  cfg.SessionID,
			Action:     store.SessionStart,
			Kind:       string(cfg.Kind),
			LearnerID:  cfg.LearnerID,
			HomeworkID: cfg.HomeworkID,
			Subject:    string(cfg.Subject),
			Grade:      cfg.Grade,
			Total:      c.TotalInitial,
		})
	})
	return s, s.prepareInput()
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.loadErr != nil {
		switch key {
		case "r", "R":
			s.loadErr = nil
			s.loading = true
			return s, s.load()
		case "esc":
			return s, router.Pop()
		}
		return s, nil
	}
	if s.session == nil || s.publishing {
		if key == "esc" && s.loading {
			return s, router.Pop()
		}
		return s, nil
	}

	if s.quitConfirm {
		switch key {
		case "y", "Y":
			s.quitConfirm = false
			return s, router.Pop()
		case "n", "N", "esc":
			s.quitConfirm = false
		}
		return s, nil
	}

	if r := s.session.Reward(); r != nil {
		if !r.Blocking() {
			if key == "esc" {
				s.quitConfirm = true
			}
			return s, nil
		}
		switch key {
		case "space":
			s.balloons++
		case "enter":
			return s.applyStep(s.session.DismissReward(s.now()))
		}
		return s, nil
	}

	if key == "esc" {
		s.quitConfirm = true
		return s, nil
	}
	if s.session.Phase() != engine.PhaseAnswering {
		return s, nil
	}

	if key == "enter" {
		return s.submit()
	}
	if s.useChoices {
		if s.choices.IsShortcut(key) {
			s.choices, _ = s.choices.Update(msg)
			return s.submit()
		}
		s.choices, _ = s.choices.Update(msg)
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) answer() string {
	if s.useChoices {
		return s.choices.Value()
	}
	return s.input.Value()
}

// submit sends the current answer to the session.
func (s *Screen) submit() (screen.Screen, tea.Cmd) {
	q, ok := s.session.Current()
	if !ok {
		return s, nil
	}
	answer := s.answer()
	sub, err := s.session.Submit(answer, s.now())
	switch {
	case errors.Is(err, engine.ErrEmptyAnswer):
		s.notice = "Type or pick an answer first."
		return s, nil
	case err != nil:
		// Busy or finished: the key press raced a transition.
		return s, nil
	}
	s.notice = ""

	attempt := len(s.session.Attempts(sub.QuestionID))
	s.record(func(ctx context.Context) error {
		return s.svc.Events.AppendAnswerEvent(ctx, store.AnswerEventData{
			SessionID:  s.cfg.SessionID,
			QuestionID: sub.QuestionID,
			Variant:    string(q.Variant.Kind()),
			Answer:     answer,
			Correct:    sub.Correct,
			Attempt:    attempt,
			Outcome:    sub.Outcome.String(),
		})
	})

	if s.useChoices {
		s.choices.Lock()
	} else {
		s.input.Submit(sub.Correct)
		s.input.Blur()
	}

	var cmds []tea.Cmd
	if sub.Reward != nil {
		s.recordReward(sub.Reward)
		cmds = append(cmds, s.startReward(sub.Reward))
	}
	if sub.Schedule != nil {
		cmds = append(cmds, schedule(*sub.Schedule))
	}
	if sub.Result != nil {
		cmds = append(cmds, s.finish(sub.Result))
	}
	return s, tea.Batch(cmds...)
}

func (s *Screen) handleTransition(t engine.Transition) (screen.Screen, tea.Cmd) {
	if s.session == nil || s.closed {
		return s, nil
	}
	return s.applyStep(s.session.Fire(t, s.now()))
}

// applyStep follows up on a fired transition or a dismissal.
func (s *Screen) applyStep(step engine.Step) (screen.Screen, tea.Cmd) {
	if !step.Applied {
		return s, nil
	}
	var cmds []tea.Cmd
	if step.Schedule != nil {
		cmds = append(cmds, schedule(*step.Schedule))
	}
	if step.Result != nil {
		cmds = append(cmds, s.finish(step.Result))
	} else if s.session.Phase() == engine.PhaseAnswering {
		cmds = append(cmds, s.prepareInput())
	}
	return s, tea.Batch(cmds...)
}

// prepareInput resets the answer widget for the question on screen.
func (s *Screen) prepareInput() tea.Cmd {
	q, ok := s.session.Current()
	if !ok {
		return nil
	}
	if q.Variant.HasOptions() {
		s.useChoices = true
		s.choices = components.NewChoiceList(choicesFor(q), q.Variant.Kind() == question.KindMultiSelect)
		return nil
	}
	s.useChoices = false
	s.input.Reset()
	return s.input.Focus()
}

func choicesFor(q *question.Question) []components.Choice {
	opts := q.Options
	if len(opts) == 0 {
		if tf, ok := q.Variant.(question.TrueFalse); ok {
			opts = tf.Options()
		}
	}
	out := make([]components.Choice, 0, len(opts))
	for _, o := range opts {
		out = append(out, components.Choice{Value: o.Value, Label: o.Label()})
	}
	return out
}

func (s *Screen) startReward(r *engine.Reward) tea.Cmd {
	s.frame = 0
	s.balloons = 0
	return frameTick()
}

func (s *Screen) handleFrame() (screen.Screen, tea.Cmd) {
	if s.session == nil || s.closed || s.session.Reward() == nil {
		return s, nil
	}
	s.frame++
	return s, frameTick()
}

func (s *Screen) recordReward(r *engine.Reward) {
	c := s.session.Counters()
	s.svc.Log().Infof("session %s reward %s (%s) after %d solved", s.cfg.SessionID, r.Rule.ID, r.Rule.RewardKind, c.Finished)
	s.record(func(ctx context.Context) error {
		return s.svc.Events.AppendRewardEvent(ctx, store.RewardEventData{
			SessionID:     s.cfg.SessionID,
			RuleID:        r.Rule.ID,
			RewardKind:    string(r.Rule.RewardKind),
			Payload:       r.Rule.RewardPayload,
			Forced:        r.Forced,
			Finished:      c.Finished,
			TotalAnswered: c.TotalAnswered,
		})
	})
}

// finish records the end of the session and hands the result to delivery.
func (s *Screen) finish(r *engine.Result) tea.Cmd {
	s.publishing = true
	s.record(func(ctx context.Context) error {
		return s.svc.Events.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID:    r.SessionID,
			Action:       store.SessionEnd,
			Kind:         string(r.Kind),
			LearnerID:    r.LearnerID,
			HomeworkID:   r.HomeworkID,
			Subject:      string(s.cfg.Subject),
			Grade:        s.cfg.Grade,
			Name:         r.NameEn,
			Total:        r.Total,
			CorrectCount: r.CorrectCount,
			WrongCount:   r.WrongCount,
			DurationSecs: int(r.FinishedAt.Sub(r.StartedAt).Seconds()),
		})
	})

	svc := s.svc
	publish := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		err := engine.Publish(ctx, svc.Delivery, r)
		if err != nil {
			svc.Log().Errorf("session %s result not stored: %v", r.SessionID, err)
		}
		return publishedMsg{Result: r, Status: sessionMessages(ctx, svc.Outbox, r.SessionID), Err: err}
	}
	return publish
}

// sessionMessages returns the outbox entries written for a session.
func sessionMessages(ctx context.Context, outbox store.OutboxRepo, sessionID string) []store.OutboxMessage {
	if outbox == nil {
		return nil
	}
	all, err := outbox.List(ctx, "", 50)
	if err != nil {
		return nil
	}
	var out []store.OutboxMessage
	for _, m := range all {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out
}

// record writes an event, logging instead of failing the session.
func (s *Screen) record(fn func(ctx context.Context) error) {
	if s.svc.Events == nil {
		return
	}
	if err := fn(context.Background()); err != nil {
		s.svc.Log().Warnf("session %s: record event: %v", s.cfg.SessionID, err)
	}
}

func schedule(t engine.Transition) tea.Cmd {
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return transitionMsg{T: t}
	})
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
