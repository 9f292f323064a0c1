package report

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#00FF99")
	colorHeader  = lipgloss.Color("#874BFD")
	colorSubtle  = lipgloss.Color("#64748B")
	colorDanger  = lipgloss.Color("#FF0055")
	colorWarning = lipgloss.Color("#F59E0B")

	titleStyle = lipgloss.NewStyle().
			Foreground(colorHeader).
			Bold(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Bold(true).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	headerCell = lipgloss.NewStyle().
			Foreground(colorHeader).
			Bold(true).
			PaddingRight(2)

	cell = lipgloss.NewStyle().PaddingRight(2)

	bestCell = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			PaddingRight(2)

	dangerStyle  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
)
