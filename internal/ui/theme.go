package ui

import "github.com/charmbracelet/lipgloss"

// vmdeck's palette: slate panels, teal accents, traffic-light states.
var (
	Teal   = lipgloss.Color("#2EC4B6")
	Sky    = lipgloss.Color("#56CCF2")
	Slate  = lipgloss.Color("#5C6B7A")
	Green  = lipgloss.Color("#50C878")
	Red    = lipgloss.Color("#E0115F")
	Amber  = lipgloss.Color("#FFBF00")
	Dim    = lipgloss.Color("#666666")
	Bright = lipgloss.Color("#FFFFFF")

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	Success = lipgloss.NewStyle().
		Foreground(Green)

	Error = lipgloss.NewStyle().
		Foreground(Red)

	Warning = lipgloss.NewStyle().
		Foreground(Amber)

	Info = lipgloss.NewStyle().
		Foreground(Sky)

	Muted = lipgloss.NewStyle().
		Foreground(Dim)

	Accent = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	// Match marks fuzzy-matched runes.
	Match = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true).
		Underline(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Sky).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)

	Tag = lipgloss.NewStyle().
		Foreground(Bright).
		Background(Slate).
		Padding(0, 1)
)

// StateStyle colours a VM power state.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return Success
	case "paused":
		return Warning
	case "crashed":
		return Error
	default:
		return Muted
	}
}

const (
	IconDeck    = "▣ "
	IconVM      = "◼"
	IconRunning = "●"
	IconStopped = "○"
	IconConsole = "🖥 "
	IconKey     = "🔑"
	IconWarn    = "⚠️ "
	IconError   = "✗ "
	IconOk      = "✓ "
	IconArrow   = "→"
	IconDot     = "·"
	Crumb       = " › "
)
