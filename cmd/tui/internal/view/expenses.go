package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/client"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

type ExpenseAPI interface {
	ListExpenses(ctx context.Context, opts client.ListOptions) (client.Page[client.Expense], error)
	CreateExpense(ctx context.Context, in client.ExpenseInput) (client.Expense, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, in client.ExpenseInput) (client.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context, opts client.ListOptions) (client.Page[client.Category], error)
}

type expensesState int

const (
	expensesStateBrowse expensesState = iota
	expensesStateEdit
	expensesStateConfirmDelete
)

type ExpensesModel struct {
	api   ExpenseAPI
	theme Theme

	state      expensesState
	table      table.Model
	expenses   []client.Expense
	categories []client.Category
	activeOnly bool

	form    *huh.Form
	fields  *expenseFields
	editing *uuid.UUID

	loading bool
	err     error
	status  string
}

// expenseFields backs the edit form. It lives behind a pointer so the form
// keeps writing to it across model copies.
type expenseFields struct {
	name     string
	amount   string
	currency string
	interval billing.Interval
	next     string
	category uuid.UUID
	active   bool
	notes    string
}

func NewExpensesModel(api ExpenseAPI, theme Theme) ExpensesModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Amount", Width: 10},
		{Title: "Currency", Width: 8},
		{Title: "Interval", Width: 10},
		{Title: "Next Billing", Width: 12},
		{Title: "Category", Width: 18},
		{Title: "Active", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(theme.TableStyles())

	return ExpensesModel{
		api:     api,
		theme:   theme,
		table:   t,
		loading: true,
	}
}

func (m ExpensesModel) Title() string { return "Recurring Expenses" }

func (m ExpensesModel) ShortHelp() string {
	switch m.state {
	case expensesStateEdit:
		return "Navigate form | Esc: cancel"
	case expensesStateConfirmDelete:
		return "y: delete | n: keep"
	}

	return "Esc: back | n: new | e: edit | x: delete | a: active only | r: reload"
}

func (m ExpensesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case expensesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, LoggedOut
			}

			m.err = msg.err

			return m, nil
		}

		m.err = nil
		m.expenses = msg.expenses
		m.categories = msg.categories
		m.refreshTable()

		return m, nil

	case expenseSavedMsg:
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, LoggedOut
			}

			m.status = m.theme.ErrorText("Error saving: " + errorMessage(msg.err))

			if m.state == expensesStateEdit && m.fields != nil {
				m.form = m.buildForm(m.fields)
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
	case expensesStateBrowse:
		return m.updateBrowse(msg)
	case expensesStateEdit:
		return m.updateEdit(msg)
	case expensesStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m, nil
}

func (m ExpensesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			m.status = ""

			return m, m.loadCmd()
		case "a":
			m.activeOnly = !m.activeOnly
			m.loading = true

			return m, m.loadCmd()
		case "n":
			return m.openForm(nil)
		case "e":
			if e, ok := m.selected(); ok {
				return m.openForm(&e)
			}

			return m, nil
		case "x":
			if _, ok := m.selected(); ok {
				m.state = expensesStateConfirmDelete
				m.table.Blur()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ExpensesModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		e, ok := m.selected()
		m.state = expensesStateBrowse
		m.table.Focus()

		if !ok {
			return m, nil
		}

		return m, m.deleteCmd(e)
	case "n", "N", "esc":
		m.state = expensesStateBrowse
		m.table.Focus()
	}

	return m, nil
}

func (m ExpensesModel) openForm(e *client.Expense) (tea.Model, tea.Cmd) {
	f := &expenseFields{
		currency: "EUR",
		interval: billing.IntervalMonthly,
		next:     time.Now().Format(time.DateOnly),
		active:   true,
	}
	m.editing = nil

	if e != nil {
		f.name = e.Name
		f.amount = e.Amount.StringFixed(2)
		f.currency = e.Currency
		f.interval = e.Interval
		f.next = e.NextBillingDate
		f.active = e.IsActive

		if e.Category != nil {
			f.category = e.Category.ID
		}

		if e.Notes != nil {
			f.notes = *e.Notes
		}

		m.editing = new(e.ID)
	}

	m.fields = f
	m.form = m.buildForm(f)
	m.state = expensesStateEdit
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m *ExpensesModel) closeForm() {
	m.state = expensesStateBrowse
	m.form = nil
	m.fields = nil
	m.editing = nil
	m.table.Focus()
}

func (m ExpensesModel) buildForm(f *expenseFields) *huh.Form {
	categories := []huh.Option[uuid.UUID]{huh.NewOption("None", uuid.Nil)}
	for _, c := range m.categories {
		categories = append(categories, huh.NewOption(c.Name, c.ID))
	}

	intervals := make([]huh.Option[billing.Interval], 0, len(billing.Intervals))
	for _, i := range billing.Intervals {
		intervals = append(intervals, huh.NewOption(FormatInterval(i), i))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&f.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Title("Amount").
				Placeholder("9.99").
				Value(&f.amount).
				Validate(validateAmount),

			huh.NewInput().
				Title("Currency").
				Placeholder("EUR").
				CharLimit(3).
				Value(&f.currency),

			huh.NewSelect[billing.Interval]().
				Title("Interval").
				Options(intervals...).
				Value(&f.interval),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Next billing date").
				Placeholder("YYYY-MM-DD").
				Value(&f.next).
				Validate(func(s string) error {
					if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
						return errors.New("use YYYY-MM-DD")
					}
					return nil
				}),

			huh.NewSelect[uuid.UUID]().
				Title("Category").
				Options(categories...).
				Value(&f.category),

			huh.NewConfirm().
				Title("Active?").
				Value(&f.active),

			huh.NewText().
				Title("Notes").
				Lines(3).
				Value(&f.notes),
		),
	).WithWidth(45).WithShowHelp(false).WithTheme(m.theme.Form())
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("amount must be a number")
	}

	if !d.IsPositive() {
		return errors.New("amount must be positive")
	}

	return nil
}

func (f *expenseFields) input() (client.ExpenseInput, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(f.amount))
	if err != nil {
		return client.ExpenseInput{}, fmt.Errorf("parsing amount: %w", err)
	}

	in := client.ExpenseInput{
		Name:            strings.TrimSpace(f.name),
		Amount:          amount,
		Currency:        strings.ToUpper(strings.TrimSpace(f.currency)),
		Interval:        f.interval,
		NextBillingDate: strings.TrimSpace(f.next),
		IsActive:        f.active,
	}

	if f.category != uuid.Nil {
		in.Category = new(f.category)
	}

	if notes := strings.TrimSpace(f.notes); notes != "" {
		in.Notes = &notes
	}

	return in, nil
}

func (m ExpensesModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	in, err := m.fields.input()
	if err != nil {
		m.status = m.theme.ErrorText(err.Error())
		m.closeForm()

		return m, nil
	}

	return m, m.saveCmd(m.editing, in)
}

func (m ExpensesModel) selected() (client.Expense, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.expenses) {
		return client.Expense{}, false
	}

	return m.expenses[idx], true
}

func (m ExpensesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading recurring expenses...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(m.theme.ErrorText(fmt.Sprintf("Error: %v", m.err)))
	}

	filter := "All"
	if m.activeOnly {
		filter = "Active only"
	}

	header := fmt.Sprintf("%s | [a] Filter: %s | %d items",
		m.Title(), m.theme.Highlight(filter), len(m.expenses))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		m.theme.Border().Render(m.table.View()),
	)

	switch m.state {
	case expensesStateEdit:
		title := "New Expense"
		if m.editing != nil {
			title = "Edit Expense"
		}

		panel := m.theme.Panel().Render(title + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	case expensesStateConfirmDelete:
		if e, ok := m.selected(); ok {
			content += "\n\n" + m.theme.ErrorText(fmt.Sprintf("Delete %q? (y/n)", e.Name))
		}
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	content += "\n\n" + m.theme.Faint(m.ShortHelp())

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ExpensesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.expenses))
	for _, e := range m.expenses {
		rows = append(rows, table.Row{
			e.Name,
			FormatAmount(e.Amount),
			e.Currency,
			FormatInterval(e.Interval),
			e.NextBillingDate,
			FormatCategory(e.Category),
			FormatActive(e.IsActive),
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// Messages

type expensesLoadedMsg struct {
	expenses   []client.Expense
	categories []client.Category
	err        error
}

type expenseSavedMsg struct {
	done string
	err  error
}

func (m ExpensesModel) loadCmd() tea.Cmd {
	activeOnly := m.activeOnly

	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		expenses, err := m.api.ListExpenses(ctx, client.ListOptions{
			ActiveOnly:   activeOnly,
			OrderBy:      "nextBillingDate",
			ItemsPerPage: listing.MaxPageSize,
		})
		if err != nil {
			return expensesLoadedMsg{err: err}
		}

		categories, err := m.api.ListCategories(ctx, client.ListOptions{
			OrderBy:      "name",
			ItemsPerPage: listing.MaxPageSize,
		})
		if err != nil {
			return expensesLoadedMsg{err: err}
		}

		return expensesLoadedMsg{expenses: expenses.Member, categories: categories.Member}
	}
}

func (m ExpensesModel) saveCmd(id *uuid.UUID, in client.ExpenseInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		if id == nil {
			if _, err := m.api.CreateExpense(ctx, in); err != nil {
				return expenseSavedMsg{err: err}
			}

			return expenseSavedMsg{done: fmt.Sprintf("Created %q", in.Name)}
		}

		if _, err := m.api.UpdateExpense(ctx, *id, in); err != nil {
			return expenseSavedMsg{err: err}
		}

		return expenseSavedMsg{done: fmt.Sprintf("Updated %q", in.Name)}
	}
}

func (m ExpensesModel) deleteCmd(e client.Expense) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		if err := m.api.DeleteExpense(ctx, e.ID); err != nil && !client.IsNotFound(err) {
			return expenseSavedMsg{err: err}
		}

		return expenseSavedMsg{done: fmt.Sprintf("Deleted %q", e.Name)}
	}
}
