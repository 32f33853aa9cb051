package view

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/client"
)

type fakeAPI struct {
	expenses   []client.Expense
	categories []client.Category
	err        error
	deleted    []uuid.UUID
	opts       client.ListOptions
}

func (f *fakeAPI) ListExpenses(_ context.Context, opts client.ListOptions) (client.Page[client.Expense], error) {
	f.opts = opts
	return client.Page[client.Expense]{Member: f.expenses, TotalItems: len(f.expenses)}, f.err
}

func (f *fakeAPI) CreateExpense(context.Context, client.ExpenseInput) (client.Expense, error) {
	return client.Expense{}, f.err
}

func (f *fakeAPI) UpdateExpense(context.Context, uuid.UUID, client.ExpenseInput) (client.Expense, error) {
	return client.Expense{}, f.err
}

func (f *fakeAPI) DeleteExpense(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeAPI) ListCategories(context.Context, client.ListOptions) (client.Page[client.Category], error) {
	return client.Page[client.Category]{Member: f.categories, TotalItems: len(f.categories)}, f.err
}

func (f *fakeAPI) CreateCategory(context.Context, string) (client.Category, error) {
	return client.Category{}, f.err
}

func (f *fakeAPI) RenameCategory(context.Context, uuid.UUID, string) (client.Category, error) {
	return client.Category{}, f.err
}

func (f *fakeAPI) DeleteCategory(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeAuth struct {
	ok bool
}

func (f fakeAuth) Login(context.Context, string, string, bool) bool { return f.ok }

func TestExpensesModel_Load(t *testing.T) {
	api := &fakeAPI{
		expenses: []client.Expense{{
			ID:              uuid.New(),
			Name:            "Netflix",
			Amount:          decimal.RequireFromString("15.9"),
			Currency:        "EUR",
			Interval:        billing.IntervalMonthly,
			NextBillingDate: "2024-03-31",
			IsActive:        true,
		}},
	}

	m := NewExpensesModel(api, DarkTheme)
	updated, cmd := m.Update(m.Init()())
	assert.Nil(t, cmd)

	got := updated.(ExpensesModel)
	require.Len(t, got.table.Rows(), 1)
	assert.Equal(t, []string{"Netflix", "15.90", "EUR", "Monthly", "2024-03-31", "-", "yes"}, []string(got.table.Rows()[0]))
	assert.Equal(t, "nextBillingDate", api.opts.OrderBy)
	assert.False(t, api.opts.ActiveOnly)
}

func TestExpensesModel_ToggleActiveOnly(t *testing.T) {
	api := &fakeAPI{}

	m := NewExpensesModel(api, DarkTheme)
	updated, _ := m.Update(m.Init()())

	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)

	cmd()
	assert.True(t, api.opts.ActiveOnly)
	assert.True(t, updated.(ExpensesModel).activeOnly)
}

func TestExpensesModel_UnauthorizedLogsOut(t *testing.T) {
	m := NewExpensesModel(&fakeAPI{err: client.ErrUnauthorized}, DarkTheme)

	_, cmd := m.Update(m.Init()())
	require.NotNil(t, cmd)
	assert.IsType(t, LoggedOutMsg{}, cmd())
}

func TestExpensesModel_DeleteConfirm(t *testing.T) {
	id := uuid.New()
	api := &fakeAPI{expenses: []client.Expense{{ID: id, Name: "Gym"}}}

	m := NewExpensesModel(api, DarkTheme)
	var model tea.Model = m
	model, _ = model.Update(m.Init()())

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, expensesStateConfirmDelete, model.(ExpensesModel).state)

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	assert.Equal(t, expensesStateBrowse, model.(ExpensesModel).state)

	msg := cmd()
	assert.Equal(t, []uuid.UUID{id}, api.deleted)

	saved, ok := msg.(expenseSavedMsg)
	require.True(t, ok)
	assert.NoError(t, saved.err)
}

func TestExpenseFields_Input(t *testing.T) {
	type testCase struct {
		name   string
		fields expenseFields
		want   client.ExpenseInput
	}

	cat := uuid.New()

	tests := []testCase{
		{
			name: "NoCategoryNoNotes",
			fields: expenseFields{
				name: " Netflix ", amount: "15.99", currency: "eur",
				interval: billing.IntervalMonthly, next: "2024-03-31", active: true,
			},
			want: client.ExpenseInput{
				Name: "Netflix", Amount: decimal.RequireFromString("15.99"), Currency: "EUR",
				Interval: billing.IntervalMonthly, NextBillingDate: "2024-03-31", IsActive: true,
			},
		},
		{
			name: "WithCategoryAndNotes",
			fields: expenseFields{
				name: "Gym", amount: "30", currency: "EUR", interval: billing.IntervalYearly,
				next: "2024-01-01", category: cat, notes: "  family plan ",
			},
			want: client.ExpenseInput{
				Name: "Gym", Amount: decimal.RequireFromString("30"), Currency: "EUR",
				Interval: billing.IntervalYearly, NextBillingDate: "2024-01-01",
				Category: &cat, Notes: new("family plan"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fields.input()
			require.NoError(t, err)

			assert.True(t, tt.want.Amount.Equal(got.Amount))
			got.Amount = tt.want.Amount
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, validateAmount("9.99"))
	assert.Error(t, validateAmount("0"))
	assert.Error(t, validateAmount("-1"))
	assert.Error(t, validateAmount("abc"))
}

func TestCategoriesModel_DeleteMissingIsSuccess(t *testing.T) {
	id := uuid.New()
	api := &fakeAPI{
		categories: []client.Category{{ID: id, Name: "Streaming"}},
	}

	m := NewCategoriesModel(api, LightTheme)
	updated, _ := m.Update(m.Init()())
	require.Len(t, updated.(CategoriesModel).table.Rows(), 1)

	api.err = &client.StatusError{StatusCode: 404, Message: "Not Found"}

	msg := updated.(CategoriesModel).deleteCmd(api.categories[0])()
	saved, ok := msg.(categorySavedMsg)
	require.True(t, ok)
	assert.NoError(t, saved.err)
	assert.Equal(t, []uuid.UUID{id}, api.deleted)
}

func TestLoginModel_Result(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := NewLoginModel(fakeAuth{ok: true}, DarkTheme)
		m.state = loginStateAuthenticating

		_, cmd := m.Update(loginResultMsg{ok: true})
		require.NotNil(t, cmd)
		assert.IsType(t, LoggedInMsg{}, cmd())
	})

	t.Run("Failure", func(t *testing.T) {
		m := NewLoginModel(fakeAuth{}, DarkTheme)
		m.state = loginStateAuthenticating
		m.email = "jane@example.com"

		updated, _ := m.Update(loginResultMsg{ok: false})
		got := updated.(LoginModel)

		assert.True(t, got.failed)
		assert.Equal(t, loginStateForm, got.state)
		assert.Contains(t, got.View(), "Login failed")
	})

	t.Run("LoginCmd", func(t *testing.T) {
		m := NewLoginModel(fakeAuth{ok: true}, DarkTheme)
		assert.Equal(t, loginResultMsg{ok: true}, m.loginCmd("a@b.c", "secret", false)())
	})
}

func TestTheme(t *testing.T) {
	assert.Equal(t, LightTheme, ThemeByName("light"))
	assert.Equal(t, DarkTheme, ThemeByName("dark"))
	assert.Equal(t, DarkTheme, ThemeByName(""))
	assert.Equal(t, LightTheme, DarkTheme.Toggle())
	assert.Equal(t, DarkTheme, LightTheme.Toggle())
}
