package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/subtrack/internal/client"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

type CategoryAPI interface {
	ListCategories(ctx context.Context, opts client.ListOptions) (client.Page[client.Category], error)
	CreateCategory(ctx context.Context, name string) (client.Category, error)
	RenameCategory(ctx context.Context, id uuid.UUID, name string) (client.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type categoriesState int

const (
	categoriesStateBrowse categoriesState = iota
	categoriesStateEdit
	categoriesStateConfirmDelete
)

type CategoriesModel struct {
	api   CategoryAPI
	theme Theme

	state      categoriesState
	table      table.Model
	categories []client.Category

	form    *huh.Form
	name    *string
	editing *uuid.UUID

	loading bool
	err     error
	status  string
}

func NewCategoriesModel(api CategoryAPI, theme Theme) CategoriesModel {
	t := table.New(
		table.WithColumns([]table.Column{{Title: "Name", Width: 40}}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(theme.TableStyles())

	return CategoriesModel{
		api:     api,
		theme:   theme,
		table:   t,
		loading: true,
	}
}

func (m CategoriesModel) Title() string { return "Categories" }

func (m CategoriesModel) ShortHelp() string {
	switch m.state {
	case categoriesStateEdit:
		return "Enter: save | Esc: cancel"
	case categoriesStateConfirmDelete:
		return "y: delete | n: keep"
	}

	return "Esc: back | n: new | e: rename | x: delete | r: reload"
}

func (m CategoriesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CategoriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, LoggedOut
			}

			m.err = msg.err

			return m, nil
		}

		m.err = nil
		m.categories = msg.categories
		m.refreshTable()

		return m, nil

	case categorySavedMsg:
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, LoggedOut
			}

			m.status = m.theme.ErrorText("Error: " + errorMessage(msg.err))

			if m.state == categoriesStateEdit && m.name != nil {
				m.form = m.buildForm(m.name)
				return m, m.form.Init()
			}

			return m, nil
		}

		m.status = m.theme.SuccessText(msg.done)
		m.closeForm()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil
	}

	switch m.state {
	case categoriesStateBrowse:
		return m.updateBrowse(msg)
	case categoriesStateEdit:
		return m.updateEdit(msg)
	case categoriesStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m, nil
}

func (m CategoriesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			m.status = ""

			return m, m.loadCmd()
		case "n":
			return m.openForm(nil)
		case "e":
			if c, ok := m.selected(); ok {
				return m.openForm(&c)
			}

			return m, nil
		case "x":
			if _, ok := m.selected(); ok {
				m.state = categoriesStateConfirmDelete
				m.table.Blur()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m CategoriesModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		c, ok := m.selected()
		m.state = categoriesStateBrowse
		m.table.Focus()

		if !ok {
			return m, nil
		}

		return m, m.deleteCmd(c)
	case "n", "N", "esc":
		m.state = categoriesStateBrowse
		m.table.Focus()
	}

	return m, nil
}

func (m CategoriesModel) openForm(c *client.Category) (tea.Model, tea.Cmd) {
	name := ""
	m.editing = nil

	if c != nil {
		name = c.Name
		m.editing = new(c.ID)
	}

	m.name = &name
	m.form = m.buildForm(m.name)
	m.state = categoriesStateEdit
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m *CategoriesModel) closeForm() {
	m.state = categoriesStateBrowse
	m.form = nil
	m.name = nil
	m.editing = nil
	m.table.Focus()
}

func (m CategoriesModel) buildForm(name *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				CharLimit(255).
				Value(name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false).WithTheme(m.theme.Form())
}

func (m CategoriesModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.closeForm()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd(m.editing, strings.TrimSpace(*m.name))
}

func (m CategoriesModel) selected() (client.Category, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.categories) {
		return client.Category{}, false
	}

	return m.categories[idx], true
}

func (m CategoriesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading categories...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(m.theme.ErrorText(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("%s | %d items", m.Title(), len(m.categories))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		m.theme.Border().Render(m.table.View()),
	)

	switch m.state {
	case categoriesStateEdit:
		title := "New Category"
		if m.editing != nil {
			title = "Rename Category"
		}

		panel := m.theme.Panel().Render(title + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	case categoriesStateConfirmDelete:
		if c, ok := m.selected(); ok {
			content += "\n\n" + m.theme.ErrorText(
				fmt.Sprintf("Delete %q? Expenses using it keep no category. (y/n)", c.Name),
			)
		}
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	content += "\n\n" + m.theme.Faint(m.ShortHelp())

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *CategoriesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.categories))
	for _, c := range m.categories {
		rows = append(rows, table.Row{c.Name})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// Messages

type categoriesLoadedMsg struct {
	categories []client.Category
	err        error
}

type categorySavedMsg struct {
	done string
	err  error
}

func (m CategoriesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		page, err := m.api.ListCategories(ctx, client.ListOptions{
			OrderBy:      "name",
			ItemsPerPage: listing.MaxPageSize,
		})
		if err != nil {
			return categoriesLoadedMsg{err: err}
		}

		return categoriesLoadedMsg{categories: page.Member}
	}
}

func (m CategoriesModel) saveCmd(id *uuid.UUID, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		if id == nil {
			if _, err := m.api.CreateCategory(ctx, name); err != nil {
				return categorySavedMsg{err: err}
			}

			return categorySavedMsg{done: fmt.Sprintf("Created %q", name)}
		}

		if _, err := m.api.RenameCategory(ctx, *id, name); err != nil {
			return categorySavedMsg{err: err}
		}

		return categorySavedMsg{done: fmt.Sprintf("Renamed to %q", name)}
	}
}

func (m CategoriesModel) deleteCmd(c client.Category) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		if err := m.api.DeleteCategory(ctx, c.ID); err != nil && !client.IsNotFound(err) {
			return categorySavedMsg{err: err}
		}

		return categorySavedMsg{done: fmt.Sprintf("Deleted %q", c.Name)}
	}
}
