package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorOverlay lipgloss.Color = "#6c7086"
	colorAccent  lipgloss.Color = "#f5c2e7"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorWarning lipgloss.Color = "#f9e2af"
	colorError   lipgloss.Color = "#f38ba8"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleFooter  = lipgloss.NewStyle().Faint(true)
	styleURL     = lipgloss.NewStyle().Foreground(colorSubtext)
	styleOwner   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	styleLikes   = lipgloss.NewStyle().Foreground(colorAccent)
	styleComment = lipgloss.NewStyle().Foreground(colorSubtext)
	styleBusy    = lipgloss.NewStyle().Foreground(colorWarning)
	styleFailed  = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	styleReady   = lipgloss.NewStyle().Foreground(colorSuccess)
	styleEmpty   = lipgloss.NewStyle().Foreground(colorOverlay)
)
