package feed

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	author  lipgloss.Style
	handle  lipgloss.Style
	content lipgloss.Style
	meta    lipgloss.Style
	active  lipgloss.Style
	self    lipgloss.Style
	peer    lipgloss.Style
	warning lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		author:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		handle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		content: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("204")),
		self:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		peer:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}
