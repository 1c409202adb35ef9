package cli

import "github.com/charmbracelet/lipgloss"

// Ink palette shared by the CLI and the TUI
var (
	InkCyan    = lipgloss.Color("#5FD7FF") // Titles, progress start
	InkBlue    = lipgloss.Color("#5F87FF") // Section headers, progress end
	InkMagenta = lipgloss.Color("#D75FD7") // Arguments
	InkCoral   = lipgloss.Color("#FF5F5F") // Errors
	InkGreen   = lipgloss.Color("#5FD75F") // Completion
	InkAmber   = lipgloss.Color("#FFD75F") // Warnings

	Graphite = lipgloss.Color("#8A8A8A") // Subtle text
	Paper    = lipgloss.Color("#FFFFFF")
)
