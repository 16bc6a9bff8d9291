package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorDay       = lipgloss.Color("220") // Amber
	colorNight     = lipgloss.Color("75")  // Blue
)

// InfoLabel style for field labels ("Current Phase:").
var InfoLabel = lipgloss.NewStyle().
	Foreground(colorSecondary)

// InfoValue style for plain field values.
var InfoValue = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Bold(true)

// DayBadge and NightBadge colour the phase value.
var (
	DayBadge = lipgloss.NewStyle().
			Foreground(colorDay).
			Bold(true)
	NightBadge = lipgloss.NewStyle().
			Foreground(colorNight).
			Bold(true)
)

// SourceBadge style for the source label.
var SourceBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// FallbackBadge marks a poll answered by the local calculation.
var FallbackBadge = lipgloss.NewStyle().
	Foreground(colorMuted).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// InfoBar style for the two field lines under the globe.
var InfoBar = lipgloss.NewStyle().
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for the asset status when loading failed.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true)

// OKStyle for a successful asset status.
var OKStyle = lipgloss.NewStyle().
	Foreground(colorSuccess)

// SourcesPanel frames the source ledger table.
var SourcesPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// SourcesHeader style for the table header row.
var SourcesHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(1, 2)

// DebugHeaderStyle for section headers in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
