package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/ui/theme"
)

const bannerArt = `
 ____  ____      _    ____ _____ ___ _____
|  _ \|  _ \    / \  / ___|_   _|_ _|__  /
| |_) | |_) |  / _ \| |     | |  | |  / /
|  __/|  _ <  / ___ \ |___  | |  | | / /_
|_|   |_| \_\/_/   \_\____| |_| |___/____|`

const bannerCompact = "P R A C T I Z"

// bannerMinWidth is the narrowest terminal that fits bannerArt.
const bannerMinWidth = 46

// RenderBanner returns the app name in the primary color, falling back to
// spaced letters on narrow terminals.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
