package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasklist/internal/todo"
)

var (
	titleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFDF5")).
		Background(lipgloss.Color("#25A065")).
		Padding(0, 1).
		Bold(true)

	rowStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	selectedRowStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EE6FF8")).
		Background(lipgloss.Color("#313244")).
		PaddingLeft(2)

	doneStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A6E3A1")).
		Strikethrough(true)

	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))

	categoryStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89B4FA")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F38BA8")).
		Bold(true)

	helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6C7086"))

	modalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F38BA8")).
		Padding(1, 2).
		Margin(1)

	inputStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
)

func priorityStyle(p todo.Priority) lipgloss.Style {
	switch p {
	case todo.PriorityHigh:
		return highStyle
	case todo.PriorityLow:
		return lowStyle
	default:
		return mediumStyle
	}
}
