package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Out is where every helper in this package writes.
var Out io.Writer = os.Stdout

var (
	accent = lipgloss.Color("#f97316")
	violet = lipgloss.Color("#7C3AED")
	green  = lipgloss.Color("#10B981")
	amber  = lipgloss.Color("#F59E0B")
	red    = lipgloss.Color("#EF4444")
	gray   = lipgloss.Color("#6B7280")

	// Gradient ends for progress bars.
	ProgressStart = "#f97316"
	ProgressEnd   = "#facc15"
)

var (
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(gray)
	SuccessStyle = BoldStyle.Foreground(green)
	ErrorStyle   = BoldStyle.Foreground(red)
	WarningStyle = lipgloss.NewStyle().Foreground(amber)
	SpinnerStyle = lipgloss.NewStyle().Foreground(accent)

	peerStyle = BoldStyle.Foreground(violet)
	selfStyle = BoldStyle.Foreground(accent)

	tableHeaderStyle = BoldStyle.Foreground(accent).Align(lipgloss.Center)
	tableRowStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("255"))
	tableRowAltStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
)

const (
	IconSend    = "📤"
	IconReceive = "📥"
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconInfo    = "ℹ️"
	IconCopy    = "📋"
	IconWeb     = "🌐"
)

func PrintError(msg string) {
	fmt.Fprintln(Out, ErrorStyle.Render(IconError+" "+msg))
}

func PrintWarning(msg string) {
	fmt.Fprintln(Out, WarningStyle.Render(IconWarning+" "+msg))
}

func PrintWarningf(format string, args ...any) {
	PrintWarning(fmt.Sprintf(format, args...))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Out, SuccessStyle.Render(IconSuccess), msg)
}

func PrintSuccessf(format string, args ...any) {
	PrintSuccess(fmt.Sprintf(format, args...))
}

func PrintInfo(msg string) {
	fmt.Fprintln(Out, IconInfo, msg)
}

// PeerLine formats a chat line from the other side.
func PeerLine(text string) string {
	return peerStyle.Render("peer ›") + " " + text
}

// SelfLine formats an echo of our own chat line.
func SelfLine(text string) string {
	return selfStyle.Render("you  ›") + " " + MutedStyle.Render(text)
}
