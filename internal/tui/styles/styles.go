package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Parchment = lipgloss.Color("#C8A96A")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Parchment)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(Parchment).
			Bold(true)
)

// Raw cache status characters (unstyled)
const (
	CachedChar  = "✓"
	MissingChar = "○"
	FailedChar  = "✗"
)

// Pre-rendered cache status indicators
var (
	CachedMark  = SuccessStyle.Render(CachedChar)
	MissingMark = DimStyle.Render(MissingChar)
	FailedMark  = ErrorStyle.Render(FailedChar)
)

// Spinner style
var (
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Parchment)
)

// Progress bar gradient endpoints
const (
	ProgressStart = "#8C6D3F"
	ProgressEnd   = "#C8A96A"
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Parchment)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Highlight renders s with the runes at matched positions emphasised.
func Highlight(s string, matched []int) string {
	if len(matched) == 0 {
		return s
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	var b strings.Builder
	for i, r := range []rune(s) {
		if set[i] {
			b.WriteString(HighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
