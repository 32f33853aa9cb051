package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Authenticator is the part of the session manager the login screen needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string, remember bool) bool
}

type loginState int

const (
	loginStateForm loginState = iota
	loginStateAuthenticating
)

type LoginModel struct {
	auth  Authenticator
	theme Theme

	state   loginState
	form    *huh.Form
	spinner spinner.Model
	email   string
	failed  bool
}

func NewLoginModel(auth Authenticator, theme Theme) LoginModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	m := LoginModel{
		auth:    auth,
		theme:   theme,
		spinner: s,
	}
	m.form = m.buildForm("")

	return m
}

func (m LoginModel) Title() string { return "Sign in" }

func (m LoginModel) ShortHelp() string {
	if m.state == loginStateAuthenticating {
		return "Signing in..."
	}

	return "Enter: next | Ctrl+C: quit"
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case loginStateForm:
		return m.updateForm(msg)
	case loginStateAuthenticating:
		return m.updateAuthenticating(msg)
	}

	return m, nil
}

func (m LoginModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.email = strings.TrimSpace(m.form.GetString("email"))
	m.state = loginStateAuthenticating
	m.failed = false

	return m, tea.Batch(
		m.spinner.Tick,
		m.loginCmd(m.email, m.form.GetString("password"), m.form.GetBool("remember")),
	)
}

func (m LoginModel) updateAuthenticating(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(loginResultMsg); ok {
		if result.ok {
			return m, func() tea.Msg { return LoggedInMsg{} }
		}

		m.failed = true
		m.state = loginStateForm
		m.form = m.buildForm(m.email)

		return m, m.form.Init()
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m LoginModel) buildForm(email string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Placeholder("you@example.com").
				Value(&email).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("email cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password cannot be empty")
					}
					return nil
				}),

			huh.NewConfirm().
				Key("remember").
				Title("Remember me?").
				Affirmative("Yes").
				Negative("No"),
		),
	).WithWidth(50).WithShowHelp(false).WithTheme(m.theme.Form())
}

func (m LoginModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Accent).Render("Subtrack")

	if m.state == loginStateAuthenticating {
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("%s\n\n%s Signing in as %s...", header, m.spinner.View(), m.email),
		)
	}

	body := m.form.View()
	if m.failed {
		body = m.theme.ErrorText("Login failed. Check your credentials and try again.") + "\n\n" + body
	}

	return lipgloss.NewStyle().Padding(2).Render(header + "\n\n" + body)
}

type loginResultMsg struct {
	ok bool
}

func (m LoginModel) loginCmd(email, password string, remember bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		return loginResultMsg{ok: m.auth.Login(ctx, email, password, remember)}
	}
}
