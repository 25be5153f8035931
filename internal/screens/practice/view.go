package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	engine "github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/reinforcement"
	"github.com/abhisek/practiz/internal/ui/components"
	"github.com/abhisek/practiz/internal/ui/layout"
	"github.com/abhisek/practiz/internal/ui/theme"
)

var sparkle = []string{"✦", "✧", "★", "☆", "✶", "✷"}

func (s *Screen) View(width, height int) string {
	switch {
	case s.loadErr != nil:
		return renderError(width, s.loadErr)
	case s.session == nil:
		return renderLoading(width)
	case s.publishing:
		return "\n\n\n" + layout.Centered("Saving your results...", width, theme.Dim)
	case s.quitConfirm:
		return renderQuitConfirm(width)
	}
	if r := s.session.Reward(); r != nil {
		return s.renderReward(width, r)
	}
	return s.renderQuestion(width)
}

func (s *Screen) renderQuestion(width int) string {
	q, ok := s.session.Current()
	if !ok {
		return renderLoading(width)
	}
	c := s.session.Counters()

	var b strings.Builder

	info := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("  %s · %s", q.Subject.DisplayName(), variantLabel(q.Variant.Kind())))
	bar := components.NewProgressBar("", c.Finished, c.TotalInitial, min(30, width/3)).View()
	pad := width - lipgloss.Width(info) - lipgloss.Width(bar) - 4
	b.WriteString(info)
	if pad > 0 {
		b.WriteString(strings.Repeat(" ", pad) + bar)
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	stem := lipgloss.NewStyle().
		Width(min(width-8, 70)).
		Foreground(theme.Text).
		Bold(true).
		Render(q.StemText)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, stem))
	b.WriteString("\n")
	if q.StemImage != "" {
		b.WriteString(layout.Centered("[image] "+q.StemImage, width, theme.Dim))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if s.useChoices {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choices.View()))
		if s.session.Phase() == engine.PhaseAnswering {
			help := "Pick 1-9 or use arrows + Enter"
			if s.choices.Multi {
				help = "Space toggles, Enter submits"
			}
			b.WriteString("\n")
			b.WriteString(layout.Centered(help, width, theme.Dim))
		}
	} else {
		b.WriteString(layout.Centered("Answer: "+s.input.View(), width, lipgloss.NewStyle()))
	}
	b.WriteString("\n\n")

	if s.session.Phase() == engine.PhaseFeedback {
		b.WriteString(s.renderFeedback(width, q.AnswerLabel()))
	} else if s.notice != "" {
		b.WriteString(layout.Centered(s.notice, width, theme.Warning))
	}
	return b.String()
}

// renderFeedback shows the verdict for the last submission.
func (s *Screen) renderFeedback(width int, answer string) string {
	switch s.session.Outcome() {
	case engine.OutcomeSolved:
		return layout.Centered("Correct!", width, theme.Correct)
	case engine.OutcomeRetry:
		return layout.Centered("Not quite, try again", width, theme.Incorrect)
	case engine.OutcomeHint:
		hint := lipgloss.NewStyle().Width(min(width-8, 70)).Inherit(theme.Hint).Render("Hint: " + s.session.Hint())
		return layout.Centered("Not quite", width, theme.Incorrect) + "\n" +
			lipgloss.PlaceHorizontal(width, lipgloss.Center, hint)
	case engine.OutcomeReveal:
		return layout.Centered("Not quite", width, theme.Incorrect) + "\n" +
			layout.Centered("The answer is "+answer, width, theme.Warning)
	}
	return ""
}

func (s *Screen) renderReward(width int, r *engine.Reward) string {
	var b strings.Builder
	b.WriteString("\n\n")

	payload := r.Rule.RewardPayload
	if payload == "" {
		payload = r.Rule.Name
	}

	if r.Rule.RewardKind == reinforcement.RewardMiniGame {
		body := fmt.Sprintf("Mini game: %s\n\nBalloons popped: %d\n%s",
			payload, s.balloons, strings.Repeat("◯ ", max(0, 5-s.balloons%6)))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.RewardBox.Render(body)))
		b.WriteString("\n\n")
		b.WriteString(layout.Centered("Space pops a balloon, Enter to continue", width, theme.Dim))
		return b.String()
	}

	stars := make([]string, 0, 7)
	for i := range 7 {
		stars = append(stars, sparkle[(s.frame+i)%len(sparkle)])
	}
	row := strings.Join(stars, " ")
	body := row + "\n\n" + strings.ToUpper(payload) + "\n\n" + row
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.RewardBox.Render(body)))
	b.WriteString("\n\n")
	c := s.session.Counters()
	b.WriteString(layout.Centered(fmt.Sprintf("%d solved so far", c.Finished), width, theme.Dim))
	return b.String()
}

func variantLabel(k question.Kind) string {
	return strings.ToLower(strings.ReplaceAll(string(k), "_", " "))
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(layout.Centered("Leave this session?", width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true)))
	b.WriteString("\n")
	b.WriteString(layout.Centered("Unfinished sessions are not sent to the portal.", width, theme.Dim))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered("[Y] Yes, leave", width, lipgloss.NewStyle().Foreground(theme.Error)))
	b.WriteString("\n")
	b.WriteString(layout.Centered("[N] No, keep going", width, lipgloss.NewStyle().Foreground(theme.Primary)))
	return b.String()
}

func renderLoading(width int) string {
	return "\n\n\n" + layout.Centered("Fetching your questions...", width, theme.Dim)
}

func renderError(width int, err error) string {
	box := theme.ErrorBox.Render(fmt.Sprintf("Could not start the session.\n\n%v\n\nR to retry, Esc to go back.", err))
	return "\n\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
