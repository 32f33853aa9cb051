package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/subtrack/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/subtrack/internal/client"
	"github.com/MrJamesThe3rd/subtrack/internal/config"
	"github.com/MrJamesThe3rd/subtrack/internal/session"
	"github.com/MrJamesThe3rd/subtrack/internal/session/boltstore"
)

type View int

const (
	ViewLogin      View = 0
	ViewMenu       View = 1
	ViewExpenses   View = 2
	ViewCategories View = 3
)

type model struct {
	session *session.Manager
	api     *client.Client
	prefs   view.Prefs
	theme   view.Theme

	currentView View

	loginView      view.LoginModel
	expensesView   view.ExpensesModel
	categoriesView view.CategoriesModel
}

func initialModel(sess *session.Manager, api *client.Client, prefs view.Prefs) model {
	name, err := prefs.Theme()
	if err != nil {
		slog.Error("failed to load theme", "error", err)
	}

	theme := view.ThemeByName(name)

	return model{
		session:     sess,
		api:         api,
		prefs:       prefs,
		theme:       theme,
		currentView: ViewLogin,
		loginView:   view.NewLoginModel(sess, theme),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loginView.Init(), m.restoreCmd())
}

// restoreCmd skips the login screen when a usable session survived.
func (m model) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.RequestCtx()
		defer cancel()

		if m.session.Restore(ctx) {
			return view.LoggedInMsg{}
		}

		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewExpenses
				m.expensesView = view.NewExpensesModel(m.api, m.theme)

				return m, m.expensesView.Init()
			case "2":
				m.currentView = ViewCategories
				m.categoriesView = view.NewCategoriesModel(m.api, m.theme)

				return m, m.categoriesView.Init()
			case "3":
				return m, m.logoutCmd()
			case "4":
				m.theme = m.theme.Toggle()
				if err := m.prefs.SetTheme(m.theme.Name); err != nil {
					slog.Error("failed to save theme", "error", err)
				}

				return m, nil
			}
		}
	case view.LoggedInMsg:
		if m.currentView == ViewLogin {
			m.currentView = ViewMenu
		}

		return m, nil
	case view.LoggedOutMsg:
		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.session, m.theme)

		return m, m.loginView.Init()
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewExpenses:
		var newModel tea.Model
		newModel, cmd = m.expensesView.Update(msg)
		m.expensesView = newModel.(view.ExpensesModel)
	case ViewCategories:
		var newModel tea.Model
		newModel, cmd = m.categoriesView.Update(msg)
		m.categoriesView = newModel.(view.CategoriesModel)
	}

	return m, cmd
}

func (m model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.session.Logout()
		return view.LoggedOutMsg{}
	}
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return m.menuView()
	case ViewExpenses:
		return m.expensesView.View()
	case ViewCategories:
		return m.categoriesView.View()
	}

	return "Unknown View"
}

func (m model) menuView() string {
	greeting := "Subtrack"
	if u, ok := m.session.CurrentUser(); ok {
		who := u.FirstName
		if who == "" {
			who = u.Email
		}

		greeting = fmt.Sprintf("Subtrack | signed in as %s", m.theme.Highlight(who))
	}

	return lipgloss.NewStyle().Padding(2).Render(
		greeting + "\n\n" +
			"1. Recurring Expenses\n" +
			"2. Categories\n" +
			"3. Logout\n" +
			fmt.Sprintf("4. Toggle Theme (%s)\n\n", m.theme.Name) +
			"q. Quit",
	)
}

func main() {
	if err := run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFile, err := tea.LogToFile(cfg.LogFile, "subtrack")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	store, err := boltstore.New(cfg.SessionFile)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	sess := session.New(session.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
		OnLogout: func() {
			slog.Info("session ended")
		},
	}, store)

	defer func() {
		if err := sess.Close(); err != nil {
			slog.Error("failed to close session", "error", err)
		}
	}()

	api := client.New(cfg.APIURL, &http.Client{
		Transport: sess.Transport(nil),
		Timeout:   cfg.Timeout,
	})

	p := tea.NewProgram(initialModel(sess, api, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	return nil
}
