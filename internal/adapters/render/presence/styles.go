package presence

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	user    lipgloss.Style
	self    lipgloss.Style
	meta    lipgloss.Style
	empty   lipgloss.Style
	joined  lipgloss.Style
	left    lipgloss.Style
	author  lipgloss.Style
	message lipgloss.Style
	marker  lipgloss.Style
	warning lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		user:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		self:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:   lipgloss.NewStyle().Faint(true),
		joined:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		left:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		author:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		message: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		marker:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}
