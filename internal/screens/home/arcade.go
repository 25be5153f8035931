package home

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/ui/theme"
)

const arcadeTitleFull = ` ██████╗ ██████╗  █████╗  ██████╗████████╗██╗███████╗
 ██╔══██╗██╔══██╗██╔══██╗██╔════╝╚══██╔══╝██║╚══███╔╝
 ██████╔╝██████╔╝███████║██║        ██║   ██║  ███╔╝
 ██╔═══╝ ██╔══██╗██╔══██║██║        ██║   ██║ ███╔╝
 ██║     ██║  ██║██║  ██║╚██████╗   ██║   ██║███████╗
 ╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝   ╚═╝   ╚═╝╚══════╝`

const arcadeTitleCompact = "P · R · A · C · T · I · Z"

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.ArcadeYellow).
		Bold(true)

	title := arcadeTitleFull
	if compact {
		title = arcadeTitleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(title))
}

// renderStatsBar renders the dashboard counters in a double-bordered box.
func renderStatsBar(st stats, cw int, compact bool) string {
	homeworkStyle := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true)
	todayStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	queueStyle := lipgloss.NewStyle().Foreground(theme.ArcadeCyan).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var text string
	switch {
	case !st.loaded:
		text = dimStyle.Render("loading...")
	case compact:
		text = fmt.Sprintf("%s %s %s",
			homeworkStyle.Render(fmt.Sprintf("✎%d", st.homework)),
			todayStyle.Render(fmt.Sprintf("★%d", st.today)),
			queueText(st.queued, true, queueStyle, dimStyle),
		)
	default:
		text = fmt.Sprintf("%s  %s  %s",
			homeworkStyle.Render(fmt.Sprintf("✎ %d HOMEWORK", st.homework)),
			todayStyle.Render(fmt.Sprintf("★ %d TODAY", st.today)),
			queueText(st.queued, false, queueStyle, dimStyle),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.ArcadeCyan).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(text)
}

func queueText(queued int, compact bool, active, dim lipgloss.Style) string {
	if queued == 0 {
		if compact {
			return dim.Render("↑0")
		}
		return dim.Render("↑ ALL SENT")
	}
	if compact {
		return active.Render(fmt.Sprintf("↑%d", queued))
	}
	return active.Render(fmt.Sprintf("↑ %d QUEUED", queued))
}

// renderMascotBox renders the mascot centered at content width.
func renderMascotBox(variant MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(variant))
}

// renderNote renders a one-line notice under the menu.
func renderNote(note string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ " + note)
}
