package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Accent color for the banner and headers.
const accentViolet = "#8B5CF6"

// synapse ASCII art banner.
var bannerArt = []string{
	" ███████╗██╗   ██╗███╗   ██╗ █████╗ ██████╗ ███████╗███████╗",
	" ██╔════╝╚██╗ ██╔╝████╗  ██║██╔══██╗██╔══██╗██╔════╝██╔════╝",
	" ███████╗ ╚████╔╝ ██╔██╗ ██║███████║██████╔╝███████╗█████╗  ",
	" ╚════██║  ╚██╔╝  ██║╚██╗██║██╔══██║██╔═══╝ ╚════██║██╔══╝  ",
	" ███████║   ██║   ██║ ╚████║██║  ██║██║     ███████║███████╗",
	" ╚══════╝   ╚═╝   ╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝     ╚══════╝╚══════╝",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner      lipgloss.Style
	Header      lipgloss.Style
	User        lipgloss.Style
	Assistant   lipgloss.Style
	System      lipgloss.Style
	Error       lipgloss.Style
	Prompt      lipgloss.Style
	Separator   lipgloss.Style
	StatusBar   lipgloss.Style
	CanvasTitle lipgloss.Style
	CanvasPane  lipgloss.Style
	LaneActive  lipgloss.Style
	LaneOther   lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentViolet)),
		Header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentViolet)),
		User:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		CanvasTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		CanvasPane:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		LaneActive:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		LaneOther:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// RenderBanner returns the ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range bannerArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
