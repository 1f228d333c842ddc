package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/craftpanel/craftpanel-go/internal/console"
)

// Semantic color palette using AdaptiveColor for light/dark terminal support
var (
	colorConnected  = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}   // green
	colorConnecting = lipgloss.AdaptiveColor{Light: "136", Dark: "214"} // yellow
	colorError      = lipgloss.AdaptiveColor{Light: "160", Dark: "196"} // red
	colorMuted      = lipgloss.AdaptiveColor{Light: "245", Dark: "244"} // light gray
	colorAccent     = lipgloss.AdaptiveColor{Light: "25", Dark: "75"}   // blue
	colorBgDark     = lipgloss.AdaptiveColor{Light: "254", Dark: "236"} // dark bg
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "255"}).
			Background(colorAccent).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorBgDark).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	connectedStyle  = lipgloss.NewStyle().Foreground(colorConnected)
	connectingStyle = lipgloss.NewStyle().Foreground(colorConnecting)
	errorStyle      = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

func stateStyle(s console.State) lipgloss.Style {
	switch s {
	case console.StateConnected:
		return connectedStyle
	case console.StateConnecting:
		return connectingStyle
	case console.StateForbidden, console.StateTokenError:
		return errorStyle
	default:
		return mutedStyle
	}
}

func stateIndicator(s console.State) string {
	switch s {
	case console.StateConnected:
		return connectedStyle.Render("●")
	case console.StateConnecting:
		return connectingStyle.Render("◐")
	case console.StateForbidden, console.StateTokenError:
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("○")
	}
}
