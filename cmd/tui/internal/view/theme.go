package view

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Prefs persists UI preferences next to the session.
type Prefs interface {
	Theme() (string, error)
	SetTheme(theme string) error
}

type Theme struct {
	Name       string
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color
	SelectedFg lipgloss.Color
	SelectedBg lipgloss.Color
}

var (
	DarkTheme = Theme{
		Name:       "dark",
		Accent:     lipgloss.Color("205"),
		Muted:      lipgloss.Color("240"),
		Error:      lipgloss.Color("196"),
		Success:    lipgloss.Color("46"),
		SelectedFg: lipgloss.Color("229"),
		SelectedBg: lipgloss.Color("57"),
	}
	LightTheme = Theme{
		Name:       "light",
		Accent:     lipgloss.Color("161"),
		Muted:      lipgloss.Color("246"),
		Error:      lipgloss.Color("160"),
		Success:    lipgloss.Color("28"),
		SelectedFg: lipgloss.Color("231"),
		SelectedBg: lipgloss.Color("25"),
	}
)

// ThemeByName falls back to the dark theme for unknown names.
func ThemeByName(name string) Theme {
	if name == LightTheme.Name {
		return LightTheme
	}

	return DarkTheme
}

func (t Theme) Toggle() Theme {
	if t.Name == DarkTheme.Name {
		return LightTheme
	}

	return DarkTheme
}

func (t Theme) Form() *huh.Theme {
	if t.Name == LightTheme.Name {
		return huh.ThemeBase()
	}

	return huh.ThemeCharm()
}

func (t Theme) TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Muted).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(t.SelectedFg).
		Background(t.SelectedBg).
		Bold(false)

	return s
}

func (t Theme) Highlight(s string) string {
	return lipgloss.NewStyle().Foreground(t.Accent).Render(s)
}

func (t Theme) ErrorText(s string) string {
	return lipgloss.NewStyle().Foreground(t.Error).Render(s)
}

func (t Theme) SuccessText(s string) string {
	return lipgloss.NewStyle().Foreground(t.Success).Render(s)
}

func (t Theme) Faint(s string) string {
	return lipgloss.NewStyle().Faint(true).Render(s)
}

func (t Theme) Border() lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Muted)
}

func (t Theme) Panel() lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent).
		Width(48)
}
