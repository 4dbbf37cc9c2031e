package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorAccent  = lipgloss.Color("#6366F1") // Indigo
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ValueStyle = lipgloss.NewStyle().
			Bold(true)

	DeviceIDStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)
)

// isTTY gates styling so piped output stays plain.
var isTTY = term.IsTerminal(int(os.Stdout.Fd()))

func render(s lipgloss.Style, text string) string {
	if !isTTY {
		return text
	}
	return s.Render(text)
}

func Title(s string) string   { return render(TitleStyle, s) }
func Success(s string) string { return render(SuccessStyle, s) }
func Warning(s string) string { return render(WarningStyle, s) }
func Error(s string) string   { return render(ErrorStyle, s) }
func Muted(s string) string   { return render(MutedStyle, s) }
func Value(s string) string   { return render(ValueStyle, s) }
func Code(s string) string    { return render(CodeStyle, s) }
