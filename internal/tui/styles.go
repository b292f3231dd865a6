package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// OSM-ish green for the ROAM banner.
const brandGreen = "#76C043"

// ROAM ASCII art (filled block style).
var roamArt = []string{
	"    ██████╗  ██████╗  █████╗ ███╗   ███╗",
	"    ██╔══██╗██╔═══██╗██╔══██╗████╗ ████║",
	"    ██████╔╝██║   ██║███████║██╔████╔██║",
	"    ██╔══██╗██║   ██║██╔══██║██║╚██╔╝██║",
	"    ██║  ██║╚██████╔╝██║  ██║██║ ╚═╝ ██║",
	"    ╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═╝╚═╝     ╚═╝",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Thought   lipgloss.Style // Dimmed block for the thinking region
	Tool      lipgloss.Style // Pending/finished tool call lines
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
	MapPanel  lipgloss.Style // Border box around the map summary
	MapTitle  lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandGreen)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Thought:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")),
		Tool:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		MapPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(brandGreen)).
			Padding(0, 1),
		MapTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandGreen)),
	}
}

// RenderBanner returns the ROAM ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range roamArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips contains getting started tips displayed under the banner.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Ask about a place — \"show me Lisbon\" frames it on the map panel",
	"  • Ask for a journey — \"how do I get from Oslo to Bergen?\"",
	"  • Use /help to see available commands",
	"  • Press Ctrl+C to cancel, Ctrl+D to exit",
}

// RenderWelcomeTips returns the styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
