// Package ui provides the interactive terminal UI for shouldibuy.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f7f5ee")
	LightForeground = lipgloss.Color("#1f2a1c")
	LightPrimary    = lipgloss.Color("#2e5e2a") // Banknote green
	LightAccent     = lipgloss.Color("#c9a227") // Coin gold
	LightMuted      = lipgloss.Color("#8a8f85")
	LightBorder     = lipgloss.Color("#d8d4c4")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#141a12")
	DarkForeground = lipgloss.Color("#eeeeea")
	DarkPrimary    = lipgloss.Color("#e0bb3a") // Gold (flipped)
	DarkAccent     = lipgloss.Color("#6fae5c") // Green (flipped)
	DarkMuted      = lipgloss.Color("#5d6659")
	DarkBorder     = lipgloss.Color("#344030")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme picks dark mode from COLORFGBG or SHOULDIBUY_DARK_MODE=1,
// light otherwise.
func DetectTheme() Theme {
	// Format is usually "foreground;background"
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil {
			// 0-6 and 8 (dark grey) are dark backgrounds
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
		}
	}

	if os.Getenv("SHOULDIBUY_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	Title  lipgloss.Style
	Label  lipgloss.Style
	Muted  lipgloss.Style
	Footer lipgloss.Style

	Prompt    lipgloss.Style
	UserInput lipgloss.Style
	Spinner   lipgloss.Style

	Advice lipgloss.Style
	Toast  lipgloss.Style
	Count  lipgloss.Style

	PileBox     lipgloss.Style
	BagEntering lipgloss.Style
	BagExiting  lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Label: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true).
			Width(16),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			MarginTop(1),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Advice: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent),

		Toast: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(Destructive).
			Padding(0, 1).
			Bold(true),

		Count: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		PileBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		BagEntering: lipgloss.NewStyle().
			Faint(true),

		BagExiting: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Strikethrough(true),
	}
}

// DefaultStyles returns styles for the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
